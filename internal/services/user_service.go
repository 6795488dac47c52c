package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nft-marketplace/internal/models"
	"nft-marketplace/internal/repository"
)

// UserService handles wallet-keyed profiles
type UserService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewUserService(repo *repository.Repository, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// ProcessWalletLogin looks up or registers a user by wallet address
func (s *UserService) ProcessWalletLogin(ctx context.Context, walletAddress string) (*models.User, error) {
	address, err := normalizeAddress(walletAddress)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetOrCreateUserByWallet(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to process wallet login: %w", err)
	}
	return user, nil
}

// GetProfile retrieves the profile for a wallet address
func (s *UserService) GetProfile(ctx context.Context, walletAddress string) (*models.User, error) {
	address, err := normalizeAddress(walletAddress)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByWallet(ctx, address)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, address)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies partial profile changes for the caller
func (s *UserService) UpdateProfile(
	ctx context.Context,
	walletAddress string,
	req *models.UpdateProfileRequest,
) (*models.User, error) {
	user, err := s.GetProfile(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("profile updated", zap.String("wallet", user.WalletAddress))
	return user, nil
}
