package models

import "time"

type Plan string

const (
	PlanFree     Plan = "free"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

// ProjectLimit returns the maximum number of projects a plan allows.
// A negative limit means unlimited.
func (p Plan) ProjectLimit() int {
	switch p {
	case PlanStandard:
		return 10
	case PlanPremium:
		return -1
	default:
		return 1
	}
}

// PaymentAmount returns the USDC price of a plan upgrade.
func (p Plan) PaymentAmount() string {
	switch p {
	case PlanStandard:
		return "10"
	case PlanPremium:
		return "50"
	default:
		return "0"
	}
}

// User represents a wallet identity created lazily on first authenticated request.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;not null" json:"wallet_address"`
	PrivyUserID   string    `gorm:"uniqueIndex;not null" json:"privy_user_id"`
	Plan          Plan      `gorm:"default:free" json:"plan"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
