package services

import (
	"errors"
	"fmt"

	"github.com/smartforge-lab/smartforge/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrProjectLimitReached is returned when a plan's project quota is full.
	ErrProjectLimitReached = errors.New("project limit reached for current plan, upgrade to create more projects")

	// ErrStatusConflict is returned when a guarded status transition loses to
	// a concurrent writer.
	ErrStatusConflict = errors.New("project is not in an eligible state for this transition")
)

type ProjectService interface {
	CreateProject(project *models.Project, plan models.Plan) error
	GetProjectByID(id uint) (*models.Project, error)
	GetOwnedProject(id uint, ownerAddress string) (*models.Project, error)
	ListProjectsByOwner(ownerAddress string) ([]models.Project, error)
	CountProjectsByOwner(ownerAddress string) (int64, error)
	UpdateSourceCode(id uint, sourceCode string) error
	DeleteProject(id uint) error

	// TransitionDeploymentStatus performs a compare-and-swap on the
	// deployment status: the update applies only while the current status is
	// one of from, otherwise ErrStatusConflict is returned.
	TransitionDeploymentStatus(id uint, from []models.DeploymentStatus, to models.DeploymentStatus, updates map[string]interface{}) error

	MarkDeployFailed(id uint, message string) error
	SetVerification(id uint, status models.VerificationStatus, message, guid string) error
}

type projectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) ProjectService {
	return &projectService{db: db}
}

// CreateProject creates a project after enforcing the plan's project quota.
func (s *projectService) CreateProject(project *models.Project, plan models.Plan) error {
	limit := plan.ProjectLimit()
	if limit >= 0 {
		count, err := s.CountProjectsByOwner(project.OwnerAddress)
		if err != nil {
			return err
		}
		if count >= int64(limit) {
			return ErrProjectLimitReached
		}
	}

	if project.DeploymentStatus == "" {
		project.DeploymentStatus = models.DeploymentStatusDraft
	}
	return s.db.Create(project).Error
}

func (s *projectService) GetProjectByID(id uint) (*models.Project, error) {
	var project models.Project
	err := s.db.First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetOwnedProject returns a project only when it belongs to the given owner.
func (s *projectService) GetOwnedProject(id uint, ownerAddress string) (*models.Project, error) {
	var project models.Project
	err := s.db.Where("id = ? AND owner_address = ?", id, ownerAddress).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *projectService) ListProjectsByOwner(ownerAddress string) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.Where("owner_address = ?", ownerAddress).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (s *projectService) CountProjectsByOwner(ownerAddress string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Project{}).Where("owner_address = ?", ownerAddress).Count(&count).Error
	return count, err
}

func (s *projectService) UpdateSourceCode(id uint, sourceCode string) error {
	return s.db.Model(&models.Project{}).Where("id = ?", id).Update("source_code", sourceCode).Error
}

func (s *projectService) DeleteProject(id uint) error {
	return s.db.Delete(&models.Project{}, id).Error
}

func (s *projectService) TransitionDeploymentStatus(id uint, from []models.DeploymentStatus, to models.DeploymentStatus, updates map[string]interface{}) error {
	values := map[string]interface{}{
		"deployment_status": to,
	}
	for column, value := range updates {
		values[column] = value
	}

	result := s.db.Model(&models.Project{}).
		Where("id = ? AND deployment_status IN ?", id, from).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: project %d", ErrStatusConflict, id)
	}
	return nil
}

// MarkDeployFailed moves a deploying project to failed, keeping the
// underlying error message for later inspection.
func (s *projectService) MarkDeployFailed(id uint, message string) error {
	return s.db.Model(&models.Project{}).Where("id = ?", id).Updates(map[string]interface{}{
		"deployment_status": models.DeploymentStatusFailed,
		"deployment_error":  message,
	}).Error
}

func (s *projectService) SetVerification(id uint, status models.VerificationStatus, message, guid string) error {
	updates := map[string]interface{}{
		"verification_status":  status,
		"verification_message": message,
	}
	if guid != "" {
		updates["verification_guid"] = guid
	}
	return s.db.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error
}
