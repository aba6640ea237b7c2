package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/smartforge-lab/smartforge/internal/models"
	"gorm.io/gorm"
)

// ErrSubscriptionNotPayable is returned when activation is attempted on a
// subscription that is not waiting for payment.
var ErrSubscriptionNotPayable = errors.New("subscription is not awaiting payment")

// subscriptionPeriod is the paid period granted per verified payment.
const subscriptionPeriod = 30 * 24 * time.Hour

type SubscriptionService interface {
	// CreatePaymentIntent creates a pending_payment subscription for a plan
	// upgrade and returns it with the expected payment amount.
	CreatePaymentIntent(userID uint, plan models.Plan) (*models.Subscription, error)
	GetSubscriptionByID(id uint) (*models.Subscription, error)
	GetActiveSubscription(userID uint) (*models.Subscription, error)

	// Activate moves a pending_payment subscription to active, cancels every
	// other active subscription of the same user and upgrades the user's
	// plan, all in one transaction.
	Activate(id uint, paymentTxHash string) (*models.Subscription, error)

	// ExpireOverdue marks active subscriptions whose end date has passed as
	// expired and returns how many were affected.
	ExpireOverdue() (int64, error)
}

type subscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) SubscriptionService {
	return &subscriptionService{db: db}
}

func (s *subscriptionService) CreatePaymentIntent(userID uint, plan models.Plan) (*models.Subscription, error) {
	if plan != models.PlanStandard && plan != models.PlanPremium {
		return nil, fmt.Errorf("plan %s cannot be purchased", plan)
	}

	subscription := &models.Subscription{
		UserID:        userID,
		Plan:          plan,
		Status:        models.SubscriptionStatusPendingPayment,
		PaymentAmount: plan.PaymentAmount(),
	}
	if err := s.db.Create(subscription).Error; err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *subscriptionService) GetSubscriptionByID(id uint) (*models.Subscription, error) {
	var subscription models.Subscription
	err := s.db.First(&subscription, id).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (s *subscriptionService) GetActiveSubscription(userID uint) (*models.Subscription, error) {
	var subscription models.Subscription
	err := s.db.Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (s *subscriptionService) Activate(id uint, paymentTxHash string) (*models.Subscription, error) {
	var subscription models.Subscription

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&subscription, id).Error; err != nil {
			return err
		}
		if subscription.Status != models.SubscriptionStatusPendingPayment {
			return ErrSubscriptionNotPayable
		}

		// At most one active subscription per user, enforced here rather
		// than by a unique index.
		if err := tx.Model(&models.Subscription{}).
			Where("user_id = ? AND status = ? AND id != ?", subscription.UserID, models.SubscriptionStatusActive, id).
			Update("status", models.SubscriptionStatusCancelled).Error; err != nil {
			return err
		}

		now := time.Now()
		end := now.Add(subscriptionPeriod)
		subscription.Status = models.SubscriptionStatusActive
		subscription.PaymentTxHash = paymentTxHash
		subscription.StartDate = &now
		subscription.EndDate = &end
		if err := tx.Save(&subscription).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", subscription.UserID).
			Update("plan", subscription.Plan).Error
	})
	if err != nil {
		return nil, err
	}

	return &subscription, nil
}

func (s *subscriptionService) ExpireOverdue() (int64, error) {
	result := s.db.Model(&models.Subscription{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", models.SubscriptionStatusActive, time.Now()).
		Update("status", models.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}
