package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smartforge-lab/smartforge/internal/models"
	"gorm.io/gorm"
)

type JobService interface {
	// CreateJob records a pending job; params capture the request that
	// started the workflow and are stored alongside it.
	CreateJob(kind models.JobKind, projectID uint, params models.JSON) (*models.Job, error)
	GetJobByID(id string) (*models.Job, error)
	ListJobsByProject(projectID uint) ([]models.Job, error)

	// Run executes fn in a detached goroutine. The job always reaches a
	// terminal state: fn errors and panics are persisted to the job record,
	// never rethrown toward a caller that already received its response.
	Run(job *models.Job, fn func() error)

	// SetJobError records a non-fatal warning on a job without changing its
	// status, e.g. a failed best-effort follow-up after a successful deploy.
	SetJobError(id string, message string) error
}

type jobService struct {
	db *gorm.DB
}

func NewJobService(db *gorm.DB) JobService {
	return &jobService{db: db}
}

func (s *jobService) CreateJob(kind models.JobKind, projectID uint, params models.JSON) (*models.Job, error) {
	job := &models.Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		ProjectID: projectID,
		Status:    models.JobStatusPending,
		Params:    params,
	}
	if err := s.db.Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) GetJobByID(id string) (*models.Job, error) {
	var job models.Job
	err := s.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *jobService) ListJobsByProject(projectID uint) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

func (s *jobService) Run(job *models.Job, fn func() error) {
	s.setStatus(job.ID, models.JobStatusRunning, "")

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithFields(logrus.Fields{
					"job_id":   job.ID,
					"job_kind": job.Kind,
				}).Errorf("job panicked: %v", r)
				s.setStatus(job.ID, models.JobStatusFailed, fmt.Sprintf("panic: %v", r))
			}
		}()

		if err := fn(); err != nil {
			logrus.WithFields(logrus.Fields{
				"job_id":   job.ID,
				"job_kind": job.Kind,
			}).WithError(err).Error("job failed")
			s.setStatus(job.ID, models.JobStatusFailed, err.Error())
			return
		}

		s.setStatus(job.ID, models.JobStatusSucceeded, "")
	}()
}

func (s *jobService) SetJobError(id string, message string) error {
	return s.db.Model(&models.Job{}).Where("id = ?", id).Update("error", message).Error
}

func (s *jobService) setStatus(id string, status models.JobStatus, message string) {
	updates := map[string]interface{}{
		"status": status,
	}
	if message != "" {
		updates["error"] = message
	}
	if err := s.db.Model(&models.Job{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		logrus.WithField("job_id", id).WithError(err).Error("failed to persist job status")
	}
}
