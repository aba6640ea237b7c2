package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive         SubscriptionStatus = "active"
	SubscriptionStatusCancelled      SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired        SubscriptionStatus = "expired"
	SubscriptionStatusPendingPayment SubscriptionStatus = "pending_payment"
)

// Subscription records a plan upgrade paid for with an on-chain USDC transfer.
// It is created as pending_payment and becomes active only after the payment
// transaction has been independently verified.
type Subscription struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	UserID        uint               `gorm:"index;not null" json:"user_id"`
	Plan          Plan               `gorm:"not null" json:"plan"`
	Status        SubscriptionStatus `gorm:"default:pending_payment" json:"status"`
	PaymentAmount string             `gorm:"not null" json:"payment_amount"`
	PaymentTxHash string             `json:"payment_tx_hash,omitempty"`
	StartDate     *time.Time         `json:"start_date,omitempty"`
	EndDate       *time.Time         `json:"end_date,omitempty"`
	AutoRenew     bool               `gorm:"default:false" json:"auto_renew"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
