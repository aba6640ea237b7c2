package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/smartforge-lab/smartforge/internal/compiler"
	"github.com/smartforge-lab/smartforge/internal/metrics"
)

type compileRequest struct {
	SourceCode string `json:"sourceCode"`
	// ContractName selects one contract when the source declares several.
	ContractName string `json:"contractName"`
}

type compileResponse struct {
	Success      bool            `json:"success"`
	ABI          json.RawMessage `json:"abi,omitempty"`
	Bytecode     string          `json:"bytecode,omitempty"`
	ContractName string          `json:"contractName,omitempty"`
	Errors       []string        `json:"errors"`
	Warnings     []string        `json:"warnings"`
}

// handleCompile compiles user-submitted Solidity source and returns the
// selected contract's artifacts or the aggregated compiler diagnostics.
func (s *APIServer) handleCompile(c *fiber.Ctx) error {
	var req compileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.SourceCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sourceCode is required",
		})
	}

	resolver := compiler.NewImportResolver("")
	result, err := s.compiler.Compile(req.SourceCode, resolver)
	if err != nil {
		metrics.CompilationsTotal.WithLabelValues("failed").Inc()

		var compileErr *compiler.CompilationError
		if errors.As(err, &compileErr) {
			return c.Status(fiber.StatusBadRequest).JSON(compileResponse{
				Success:  false,
				Errors:   compileErr.Diagnostics,
				Warnings: []string{},
			})
		}
		// Not a source diagnostic: the compiler itself could not run
		return c.Status(fiber.StatusInternalServerError).JSON(compileResponse{
			Success:  false,
			Errors:   []string{err.Error()},
			Warnings: []string{},
		})
	}

	artifact, err := result.Select(req.ContractName)
	if err != nil {
		metrics.CompilationsTotal.WithLabelValues("failed").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(compileResponse{
			Success:  false,
			Errors:   []string{err.Error()},
			Warnings: result.Warnings,
		})
	}

	metrics.CompilationsTotal.WithLabelValues("success").Inc()
	logrus.WithField("contract_name", artifact.ContractName).Debug("compilation succeeded")

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return c.JSON(compileResponse{
		Success:      true,
		ABI:          json.RawMessage(artifact.ABI),
		Bytecode:     artifact.Bytecode,
		ContractName: artifact.ContractName,
		Errors:       []string{},
		Warnings:     warnings,
	})
}
