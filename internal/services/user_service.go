package services

import (
	"errors"

	"github.com/smartforge-lab/smartforge/internal/models"
	"gorm.io/gorm"
)

type UserService interface {
	// GetOrCreateUser finds a user by wallet address or provider user ID,
	// creating a free-plan record on first authenticated request.
	GetOrCreateUser(walletAddress, privyUserID string) (*models.User, error)
	GetUserByWallet(walletAddress string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	UpdatePlan(id uint, plan models.Plan) error
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) GetOrCreateUser(walletAddress, privyUserID string) (*models.User, error) {
	var user models.User
	err := s.db.Where("wallet_address = ? OR privy_user_id = ?", walletAddress, privyUserID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		WalletAddress: walletAddress,
		PrivyUserID:   privyUserID,
		Plan:          models.PlanFree,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) GetUserByWallet(walletAddress string) (*models.User, error) {
	var user models.User
	err := s.db.Where("wallet_address = ?", walletAddress).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) UpdatePlan(id uint, plan models.Plan) error {
	return s.db.Model(&models.User{}).Where("id = ?", id).Update("plan", plan).Error
}
