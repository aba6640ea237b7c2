package models

import (
	"time"

	"gorm.io/gorm"
)

type ContractTemplate string

type DeploymentStatus string

type VerificationStatus string

const (
	ContractTemplateERC20  ContractTemplate = "ERC20"
	ContractTemplateERC721 ContractTemplate = "ERC721"
	ContractTemplateCustom ContractTemplate = "Custom"
)

const (
	DeploymentStatusDraft     DeploymentStatus = "draft"
	DeploymentStatusDeploying DeploymentStatus = "deploying"
	DeploymentStatusDeployed  DeploymentStatus = "deployed"
	DeploymentStatusFailed    DeploymentStatus = "failed"
)

const (
	// VerificationStatusNone means verification has never been requested
	// for the current deployment.
	VerificationStatusNone    VerificationStatus = ""
	VerificationStatusPending VerificationStatus = "pending"
	VerificationStatusSuccess VerificationStatus = "success"
	VerificationStatusFailed  VerificationStatus = "failed"
)

// Project represents a user's contract design, its deployment lifecycle and the
// explorer verification lifecycle layered on top of a deployed contract.
type Project struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	OwnerAddress string           `gorm:"index;not null" json:"owner_address"`
	Name         string           `gorm:"not null" json:"name"`
	Template     ContractTemplate `gorm:"not null;default:Custom" json:"template"`
	SourceCode   string           `gorm:"type:text" json:"source_code"`

	DeploymentStatus DeploymentStatus `gorm:"default:draft" json:"deployment_status"`
	// DeploymentError keeps the underlying failure message when a detached
	// deployment ends in the failed state.
	DeploymentError string        `gorm:"type:text" json:"deployment_error,omitempty"`
	TargetNetwork   NetworkConfig `gorm:"serializer:json" json:"target_network"`
	DeployedNetwork NetworkConfig `gorm:"serializer:json" json:"deployed_network"`
	DeployedAddress string        `json:"deployed_address,omitempty"`
	TransactionHash string        `json:"transaction_hash,omitempty"`
	ContractName    string        `json:"contract_name,omitempty"`
	ABI             string        `gorm:"type:text" json:"abi,omitempty"`

	VerificationStatus  VerificationStatus `json:"verification_status,omitempty"`
	VerificationMessage string             `gorm:"type:text" json:"verification_message,omitempty"`
	VerificationGUID    string             `json:"verification_guid,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CanVerify reports whether explorer verification may be initiated.
func (p *Project) CanVerify() bool {
	return p.DeploymentStatus == DeploymentStatusDeployed && p.DeployedAddress != ""
}
