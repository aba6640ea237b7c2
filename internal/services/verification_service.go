package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartforge-lab/smartforge/internal/chain"
	"github.com/smartforge-lab/smartforge/internal/metrics"
	"github.com/smartforge-lab/smartforge/internal/models"
	"github.com/smartforge-lab/smartforge/internal/poller"
)

// ErrNotDeployed is returned when verification is requested for a project
// without a confirmed deployment. No external service is contacted.
var ErrNotDeployed = errors.New("project must be deployed before it can be verified")

type VerificationService interface {
	// RequestVerification submits the project source to the block explorer
	// and detaches the status poll loop. The GUID is returned synchronously.
	RequestVerification(project *models.Project) (*models.Job, string, error)
}

type verificationService struct {
	projects ProjectService
	jobs     JobService
	explorer *chain.ExplorerClient

	compilerVersion string
	pollInterval    time.Duration
	maxAttempts     int
}

func NewVerificationService(projects ProjectService, jobs JobService, explorer *chain.ExplorerClient, compilerVersion string) VerificationService {
	return &verificationService{
		projects:        projects,
		jobs:            jobs,
		explorer:        explorer,
		compilerVersion: compilerVersion,
		pollInterval:    chain.VerifyPollInterval,
		maxAttempts:     chain.VerifyMaxAttempts,
	}
}

func (s *verificationService) RequestVerification(project *models.Project) (*models.Job, string, error) {
	if !project.CanVerify() {
		return nil, "", ErrNotDeployed
	}

	chainID := project.DeployedNetwork.ChainID
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	submitted, err := s.explorer.Submit(ctx, chain.SubmitRequest{
		Address:         project.DeployedAddress,
		ChainID:         chainID,
		ContractName:    project.ContractName,
		SourceCode:      project.SourceCode,
		CompilerVersion: s.compilerVersion,
	})
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("rejected").Inc()
		return nil, "", err
	}

	if err := s.projects.SetVerification(project.ID, models.VerificationStatusPending, "", submitted.GUID); err != nil {
		return nil, "", err
	}

	job, err := s.jobs.CreateJob(models.JobKindVerification, project.ID, models.JSON{
		"guid":    submitted.GUID,
		"chainId": chainID,
		"address": project.DeployedAddress,
	})
	if err != nil {
		return nil, "", err
	}

	projectID := project.ID
	guid := submitted.GUID

	s.jobs.Run(job, func() error {
		ctx := context.Background()

		status := poller.Poll(ctx, s.pollInterval, s.maxAttempts, func(ctx context.Context) (poller.Status, error) {
			return s.explorer.CheckStatus(ctx, chainID, guid)
		})

		logrus.WithFields(logrus.Fields{
			"project_id": projectID,
			"guid":       guid,
			"outcome":    status.Outcome,
		}).Info("verification poll finished")

		verificationStatus := models.VerificationStatusFailed
		if status.Outcome == poller.OutcomeSuccess {
			verificationStatus = models.VerificationStatusSuccess
		}
		metrics.VerificationsTotal.WithLabelValues(string(verificationStatus)).Inc()

		if err := s.projects.SetVerification(projectID, verificationStatus, status.Message, ""); err != nil {
			return fmt.Errorf("failed to persist verification result: %w", err)
		}
		if status.Outcome != poller.OutcomeSuccess {
			return fmt.Errorf("verification failed: %s", status.Message)
		}
		return nil
	})

	return job, submitted.GUID, nil
}
