package services

import (
	"testing"

	"github.com/smartforge-lab/smartforge/internal/chain"
	"github.com/smartforge-lab/smartforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestVerificationService(db *gorm.DB, apiKey string) (VerificationService, ProjectService, JobService) {
	projects := NewProjectService(db)
	jobs := NewJobService(db)
	verification := NewVerificationService(projects, jobs, chain.NewExplorerClient(apiKey), "v0.8.24+commit.e11b9ed9")
	return verification, projects, jobs
}

func TestRequestVerificationRequiresDeployment(t *testing.T) {
	db := setupTestDB(t)
	verification, projects, jobs := newTestVerificationService(db, "test-key")

	project := newTestProject("0x1111111111111111111111111111111111111111")
	require.NoError(t, projects.CreateProject(project, models.PlanFree))

	_, _, err := verification.RequestVerification(project)
	require.ErrorIs(t, err, ErrNotDeployed)

	// The precondition fails before any explorer call or job
	projectJobs, err := jobs.ListJobsByProject(project.ID)
	require.NoError(t, err)
	assert.Empty(t, projectJobs)

	loaded, err := projects.GetProjectByID(project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusNone, loaded.VerificationStatus)
}

func TestRequestVerificationRequiresDeployedAddress(t *testing.T) {
	db := setupTestDB(t)
	verification, projects, _ := newTestVerificationService(db, "test-key")

	project := newTestProject("0x1111111111111111111111111111111111111111")
	project.DeploymentStatus = models.DeploymentStatusDeployed
	require.NoError(t, projects.CreateProject(project, models.PlanFree))

	_, _, err := verification.RequestVerification(project)
	assert.ErrorIs(t, err, ErrNotDeployed)
}

func TestRequestVerificationSurfacesSubmissionFailure(t *testing.T) {
	db := setupTestDB(t)
	verification, projects, jobs := newTestVerificationService(db, "")

	project := newTestProject("0x1111111111111111111111111111111111111111")
	project.DeploymentStatus = models.DeploymentStatusDeployed
	project.DeployedAddress = "0x1234567890123456789012345678901234567890"
	project.DeployedNetwork = models.NetworkConfig{Name: "Base", RPCURL: "https://mainnet.base.org", ChainID: 8453}
	project.ContractName = "Token"
	require.NoError(t, projects.CreateProject(project, models.PlanFree))

	_, _, err := verification.RequestVerification(project)
	require.ErrorContains(t, err, "API key is not configured")

	// A rejected submission leaves no pending state behind
	projectJobs, err := jobs.ListJobsByProject(project.ID)
	require.NoError(t, err)
	assert.Empty(t, projectJobs)

	loaded, err := projects.GetProjectByID(project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusNone, loaded.VerificationStatus)
}
