package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/smartforge-lab/smartforge/internal/api/middleware"
	"github.com/smartforge-lab/smartforge/internal/contracts"
	"github.com/smartforge-lab/smartforge/internal/models"
	"github.com/smartforge-lab/smartforge/internal/services"
	"gorm.io/gorm"
)

type createProjectRequest struct {
	Name       string                  `json:"name" validate:"required"`
	Template   models.ContractTemplate `json:"template" validate:"required,oneof=ERC20 ERC721 Custom"`
	SourceCode string                  `json:"sourceCode"`
}

type updateProjectRequest struct {
	SourceCode string `json:"sourceCode" validate:"required"`
}

func (s *APIServer) handleCreateProject(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)

	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sourceCode := req.SourceCode
	if sourceCode == "" {
		canned, err := contracts.TemplateSource(req.Template)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		sourceCode = canned
	}

	record, err := s.users.GetUserByWallet(user.WalletAddress)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve user"})
	}

	project := &models.Project{
		OwnerAddress: user.WalletAddress,
		Name:         req.Name,
		Template:     req.Template,
		SourceCode:   sourceCode,
	}
	if err := s.projects.CreateProject(project, record.Plan); err != nil {
		if errors.Is(err, services.ErrProjectLimitReached) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create project"})
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

func (s *APIServer) handleListProjects(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)

	projects, err := s.projects.ListProjectsByOwner(user.WalletAddress)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list projects"})
	}
	return c.JSON(projects)
}

func (s *APIServer) handleGetProject(c *fiber.Ctx) error {
	project, err := s.ownedProject(c)
	if project == nil {
		return err
	}
	return c.JSON(project)
}

func (s *APIServer) handleUpdateProject(c *fiber.Ctx) error {
	project, err := s.ownedProject(c)
	if project == nil {
		return err
	}

	var req updateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := s.projects.UpdateSourceCode(project.ID, req.SourceCode); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update project"})
	}

	updated, err := s.projects.GetProjectByID(project.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load project"})
	}
	return c.JSON(updated)
}

func (s *APIServer) handleDeleteProject(c *fiber.Ctx) error {
	project, err := s.ownedProject(c)
	if project == nil {
		return err
	}

	if err := s.projects.DeleteProject(project.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete project"})
	}
	return c.JSON(fiber.Map{"message": "Project deleted"})
}

func (s *APIServer) handleGetJob(c *fiber.Ctx) error {
	job, err := s.jobs.GetJobByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Job not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load job"})
	}
	return c.JSON(job)
}

// ownedProject loads the project addressed by the :id route param, scoped to
// the authenticated owner. It writes the error response itself.
func (s *APIServer) ownedProject(c *fiber.Ctx) (*models.Project, error) {
	user := middleware.GetAuthenticatedUser(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project id"})
	}

	project, err := s.projects.GetOwnedProject(uint(id), user.WalletAddress)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load project"})
	}
	return project, nil
}
