package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/smartforge-lab/smartforge/internal/models"
	"github.com/smartforge-lab/smartforge/internal/services"
)

type deployRequest struct {
	NetworkConfig models.NetworkConfig `json:"networkConfig"`
	// ContractName selects one contract when the source declares several.
	ContractName    string `json:"contractName"`
	ConstructorArgs []any  `json:"constructorArgs"`
}

type recordDeploymentRequest struct {
	NetworkConfig models.NetworkConfig `json:"networkConfig"`
	Address       string               `json:"address" validate:"required,eth_addr"`
	TxHash        string               `json:"txHash" validate:"required"`
	ContractName  string               `json:"contractName" validate:"required"`
	ABI           string               `json:"abi" validate:"required"`
}

// handleDeployProject accepts a server-custodied deployment: the project moves
// to deploying synchronously and the compile/broadcast/confirm workflow runs
// detached. The response returns before on-chain confirmation.
func (s *APIServer) handleDeployProject(c *fiber.Ctx) error {
	project, err := s.ownedProject(c)
	if project == nil {
		return err
	}

	var req deployRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	job, err := s.deploy.RequestDeploy(project, req.NetworkConfig, req.ContractName, req.ConstructorArgs)
	if err != nil {
		if errors.Is(err, services.ErrDeployInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updated, loadErr := s.projects.GetProjectByID(project.ID)
	if loadErr != nil {
		updated = project
	}

	return c.JSON(fiber.Map{
		"message": "Deployment started",
		"project": updated,
		"job_id":  job.ID,
	})
}

// handleRecordDeployment persists a client-signed deployment after checking
// the transaction receipt on the target network.
func (s *APIServer) handleRecordDeployment(c *fiber.Ctx) error {
	project, err := s.ownedProject(c)
	if project == nil {
		return err
	}

	var req recordDeploymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := s.deploy.RecordDeployment(c.Context(), project, req.NetworkConfig, req.Address, req.TxHash, req.ContractName, req.ABI); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updated, loadErr := s.projects.GetProjectByID(project.ID)
	if loadErr != nil {
		updated = project
	}

	return c.JSON(fiber.Map{
		"message": "Deployment recorded",
		"project": updated,
	})
}

// handleVerifyProject submits a deployed project's source to the block
// explorer and detaches the status poll loop.
func (s *APIServer) handleVerifyProject(c *fiber.Ctx) error {
	project, err := s.ownedProject(c)
	if project == nil {
		return err
	}

	job, guid, err := s.verification.RequestVerification(project)
	if err != nil {
		if errors.Is(err, services.ErrNotDeployed) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message": "Verification submitted",
		"guid":    guid,
		"job_id":  job.ID,
	})
}
