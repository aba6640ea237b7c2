package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/smartforge-lab/smartforge/internal/api/middleware"
	"github.com/smartforge-lab/smartforge/internal/metrics"
	"github.com/smartforge-lab/smartforge/internal/models"
	"gorm.io/gorm"
)

type paymentIntentRequest struct {
	Plan models.Plan `json:"plan" validate:"required,oneof=standard premium"`
}

type verifyPaymentRequest struct {
	SubscriptionID uint   `json:"subscriptionId" validate:"required"`
	TxHash         string `json:"txHash" validate:"required"`
}

// handlePaymentIntent creates a pending_payment subscription and tells the
// client what to pay, where.
func (s *APIServer) handlePaymentIntent(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)

	var req paymentIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	record, err := s.users.GetUserByWallet(user.WalletAddress)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve user"})
	}

	subscription, err := s.subscriptions.CreatePaymentIntent(record.ID, req.Plan)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"subscriptionId":   strconv.FormatUint(uint64(subscription.ID), 10),
		"amount":           subscription.PaymentAmount,
		"currency":         "USDC",
		"network":          s.cfg.PaymentNetworkName,
		"recipientAddress": s.cfg.PaymentRecipientAddress,
	})
}

// handleVerifyPayment checks the claimed USDC transfer on-chain and activates
// the subscription when it holds up.
func (s *APIServer) handleVerifyPayment(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)

	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	record, err := s.users.GetUserByWallet(user.WalletAddress)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve user"})
	}

	subscription, err := s.subscriptions.GetSubscriptionByID(req.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subscription not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load subscription"})
	}
	if subscription.UserID != record.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Subscription belongs to another user"})
	}

	result := s.payments.Verify(c.Context(), req.TxHash, subscription.PaymentAmount, user.WalletAddress)
	metrics.PaymentChecksTotal.WithLabelValues(strconv.FormatBool(result.Confirmed)).Inc()

	if !result.Confirmed {
		return c.JSON(fiber.Map{
			"confirmed": false,
			"amount":    result.Amount,
		})
	}

	activated, err := s.subscriptions.Activate(subscription.ID, req.TxHash)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"confirmed":    true,
		"amount":       result.Amount,
		"subscription": activated,
	})
}

func (s *APIServer) handleCurrentSubscription(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)

	record, err := s.users.GetUserByWallet(user.WalletAddress)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve user"})
	}

	subscription, err := s.subscriptions.GetActiveSubscription(record.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No active subscription"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load subscription"})
	}
	return c.JSON(subscription)
}
