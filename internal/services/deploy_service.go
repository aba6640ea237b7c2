package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartforge-lab/smartforge/internal/chain"
	"github.com/smartforge-lab/smartforge/internal/compiler"
	"github.com/smartforge-lab/smartforge/internal/metrics"
	"github.com/smartforge-lab/smartforge/internal/models"
)

// ErrDeployInProgress is returned when a deploy request races an in-flight
// deployment for the same project.
var ErrDeployInProgress = errors.New("a deployment is already in progress for this project")

// deployTimeout bounds the whole detached workflow: compile, broadcast and
// confirmation wait.
const deployTimeout = 5 * time.Minute

type DeployService interface {
	// RequestDeploy validates the request, moves the project to deploying and
	// detaches the server-custodied deployment workflow. The returned job has
	// already been started.
	RequestDeploy(project *models.Project, network models.NetworkConfig, contractName string, constructorArgs []any) (*models.Job, error)

	// RecordDeployment persists a client-signed deployment after confirming
	// the transaction succeeded on-chain.
	RecordDeployment(ctx context.Context, project *models.Project, network models.NetworkConfig, address, txHash, contractName, abiJSON string) error
}

type deployService struct {
	projects ProjectService
	jobs     JobService
	compiler *compiler.Compiler
	deployer *chain.Deployer

	// guards serializes deployments per project; the database CAS is the
	// backstop for multi-process setups.
	guards sync.Map
}

func NewDeployService(projects ProjectService, jobs JobService, solc *compiler.Compiler, deployer *chain.Deployer) DeployService {
	return &deployService{
		projects: projects,
		jobs:     jobs,
		compiler: solc,
		deployer: deployer,
	}
}

func (s *deployService) RequestDeploy(project *models.Project, network models.NetworkConfig, contractName string, constructorArgs []any) (*models.Job, error) {
	if err := network.Validate(); err != nil {
		return nil, err
	}

	guard, _ := s.guards.LoadOrStore(project.ID, &sync.Mutex{})
	mutex := guard.(*sync.Mutex)
	if !mutex.TryLock() {
		return nil, ErrDeployInProgress
	}

	// Accepting a deploy resets the verification lifecycle of the previous
	// deployment and clears any earlier failure detail.
	err := s.projects.TransitionDeploymentStatus(
		project.ID,
		[]models.DeploymentStatus{models.DeploymentStatusDraft, models.DeploymentStatusDeployed, models.DeploymentStatusFailed},
		models.DeploymentStatusDeploying,
		map[string]interface{}{
			"target_network":       network,
			"deployment_error":     "",
			"verification_status":  models.VerificationStatusNone,
			"verification_message": "",
			"verification_guid":    "",
		},
	)
	if err != nil {
		mutex.Unlock()
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrDeployInProgress
		}
		return nil, err
	}

	job, err := s.jobs.CreateJob(models.JobKindDeployment, project.ID, models.JSON{
		"network":         network.Name,
		"chainId":         network.ChainID,
		"contractName":    contractName,
		"constructorArgs": constructorArgs,
	})
	if err != nil {
		mutex.Unlock()
		s.projects.MarkDeployFailed(project.ID, err.Error())
		return nil, err
	}

	sourceCode := project.SourceCode
	ownerAddress := project.OwnerAddress
	projectID := project.ID

	s.jobs.Run(job, func() error {
		defer func() {
			mutex.Unlock()
			// Reap the guard so deleted projects do not pin entries forever.
			// A racing request may briefly hold a fresh mutex; the status CAS
			// arbitrates that window.
			s.guards.Delete(projectID)
		}()

		if err := s.executeDeploy(projectID, job.ID, sourceCode, ownerAddress, network, contractName, constructorArgs); err != nil {
			metrics.DeploymentsTotal.WithLabelValues("failed").Inc()
			if persistErr := s.projects.MarkDeployFailed(projectID, err.Error()); persistErr != nil {
				logrus.WithField("project_id", projectID).WithError(persistErr).Error("failed to persist deployment failure")
			}
			return err
		}

		metrics.DeploymentsTotal.WithLabelValues("deployed").Inc()
		return nil
	})

	return job, nil
}

func (s *deployService) executeDeploy(projectID uint, jobID, sourceCode, ownerAddress string, network models.NetworkConfig, contractName string, constructorArgs []any) error {
	ctx, cancel := context.WithTimeout(context.Background(), deployTimeout)
	defer cancel()

	resolver := compiler.NewImportResolver("")
	result, err := s.compiler.Compile(sourceCode, resolver)
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}

	artifact, err := result.Select(contractName)
	if err != nil {
		return err
	}

	deployed, err := s.deployer.Deploy(ctx, chain.DeployRequest{
		RPCURL:          network.RPCURL,
		ChainID:         network.ChainID,
		ABI:             artifact.ABI,
		Bytecode:        artifact.Bytecode,
		ConstructorArgs: constructorArgs,
		OwnerAddress:    ownerAddress,
	})
	if err != nil {
		return err
	}

	if deployed.OwnershipTransferError != nil {
		// Contract stays owned by the deployer key; surfaced on the job, the
		// deployment itself still succeeds.
		if err := s.jobs.SetJobError(jobID, fmt.Sprintf("ownership transfer failed: %v", deployed.OwnershipTransferError)); err != nil {
			logrus.WithField("job_id", jobID).WithError(err).Error("failed to record ownership transfer warning")
		}
	}

	logrus.WithFields(logrus.Fields{
		"project_id":       projectID,
		"contract_address": deployed.Address,
		"tx_hash":          deployed.TxHash,
		"chain_id":         network.ChainID,
	}).Info("contract deployed")

	return s.projects.TransitionDeploymentStatus(
		projectID,
		[]models.DeploymentStatus{models.DeploymentStatusDeploying},
		models.DeploymentStatusDeployed,
		map[string]interface{}{
			"deployed_address": deployed.Address,
			"transaction_hash": deployed.TxHash,
			"deployed_network": network,
			"contract_name":    artifact.ContractName,
			"abi":              artifact.ABI,
		},
	)
}

func (s *deployService) RecordDeployment(ctx context.Context, project *models.Project, network models.NetworkConfig, address, txHash, contractName, abiJSON string) error {
	if err := network.Validate(); err != nil {
		return err
	}
	if address == "" || txHash == "" {
		return errors.New("address and txHash are required")
	}

	rpcClient := chain.NewRPCClient(network.RPCURL)
	rpcClient.SetTimeout(15 * time.Second)
	success, _, err := rpcClient.ConfirmDeploymentTx(ctx, txHash)
	if err != nil {
		return fmt.Errorf("failed to verify transaction: %w", err)
	}
	if !success {
		return fmt.Errorf("transaction %s failed on-chain", txHash)
	}

	err = s.projects.TransitionDeploymentStatus(
		project.ID,
		[]models.DeploymentStatus{models.DeploymentStatusDraft, models.DeploymentStatusDeploying, models.DeploymentStatusDeployed, models.DeploymentStatusFailed},
		models.DeploymentStatusDeployed,
		map[string]interface{}{
			"deployed_address":     address,
			"transaction_hash":     txHash,
			"deployed_network":     network,
			"contract_name":        contractName,
			"abi":                  abiJSON,
			"deployment_error":     "",
			"verification_status":  models.VerificationStatusNone,
			"verification_message": "",
			"verification_guid":    "",
		},
	)
	if err != nil {
		return err
	}

	metrics.DeploymentsTotal.WithLabelValues("recorded").Inc()
	return nil
}
