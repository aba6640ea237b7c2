package services

import (
	"errors"
	"testing"
	"time"

	"github.com/smartforge-lab/smartforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateJob(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobService(db)

	job, err := service.CreateJob(models.JobKindDeployment, 1, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, models.JobKindDeployment, job.Kind)

	loaded, err := service.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, loaded.ID)
}

func TestCreateJobPersistsParams(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobService(db)

	job, err := service.CreateJob(models.JobKindDeployment, 1, models.JSON{
		"contractName":    "MyToken",
		"constructorArgs": []any{"1000000"},
		"chainId":         int64(84532),
	})
	require.NoError(t, err)

	loaded, err := service.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "MyToken", loaded.Params["contractName"])
	assert.Equal(t, []any{"1000000"}, loaded.Params["constructorArgs"])
	assert.Equal(t, float64(84532), loaded.Params["chainId"])
}

func waitForJobStatus(t *testing.T, service JobService, jobID string, status models.JobStatus) *models.Job {
	t.Helper()
	var job *models.Job
	require.Eventually(t, func() bool {
		loaded, err := service.GetJobByID(jobID)
		if err != nil {
			return false
		}
		job = loaded
		return job.Status == status
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestRunReachesSucceeded(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobService(db)

	job, err := service.CreateJob(models.JobKindDeployment, 1, nil)
	require.NoError(t, err)

	service.Run(job, func() error { return nil })

	done := waitForJobStatus(t, service, job.ID, models.JobStatusSucceeded)
	assert.Empty(t, done.Error)
}

func TestRunPersistsFailure(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobService(db)

	job, err := service.CreateJob(models.JobKindDeployment, 1, nil)
	require.NoError(t, err)

	service.Run(job, func() error { return errors.New("gas estimation failed") })

	done := waitForJobStatus(t, service, job.ID, models.JobStatusFailed)
	assert.Equal(t, "gas estimation failed", done.Error)
}

func TestRunRecoversFromPanic(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobService(db)

	job, err := service.CreateJob(models.JobKindVerification, 1, nil)
	require.NoError(t, err)

	service.Run(job, func() error { panic("boom") })

	done := waitForJobStatus(t, service, job.ID, models.JobStatusFailed)
	assert.Contains(t, done.Error, "panic: boom")
}

func TestSetJobErrorKeepsStatus(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobService(db)

	job, err := service.CreateJob(models.JobKindDeployment, 1, nil)
	require.NoError(t, err)

	service.Run(job, func() error { return nil })
	waitForJobStatus(t, service, job.ID, models.JobStatusSucceeded)

	require.NoError(t, service.SetJobError(job.ID, "ownership transfer failed: no transferOwnership method"))

	loaded, err := service.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusSucceeded, loaded.Status)
	assert.Contains(t, loaded.Error, "ownership transfer failed")
}

func TestListJobsByProject(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobService(db)

	_, err := service.CreateJob(models.JobKindDeployment, 7, nil)
	require.NoError(t, err)
	_, err = service.CreateJob(models.JobKindVerification, 7, nil)
	require.NoError(t, err)
	_, err = service.CreateJob(models.JobKindDeployment, 8, nil)
	require.NoError(t, err)

	jobs, err := service.ListJobsByProject(7)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}
