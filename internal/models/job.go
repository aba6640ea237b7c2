package models

import "time"

type JobKind string

type JobStatus string

const (
	JobKindDeployment   JobKind = "deployment"
	JobKindVerification JobKind = "verification"
)

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job records a detached background workflow so its terminal state and failure
// detail stay inspectable after the triggering HTTP request has returned.
type Job struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Kind      JobKind   `gorm:"not null;index" json:"kind"`
	ProjectID uint      `gorm:"index" json:"project_id"`
	Status    JobStatus `gorm:"default:pending" json:"status"`
	// Params captures the request that started the workflow, e.g. the chosen
	// contract name and constructor arguments of a deployment.
	Params    JSON      `gorm:"type:text" json:"params,omitempty"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
