package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"nft-marketplace/internal/models"
)

// GetUserByWallet retrieves a user by wallet address
func (r *Repository) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateUserByWallet looks up a user by wallet address, creating the row
// on first login
func (r *Repository) GetOrCreateUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	user, err := r.GetUserByWallet(ctx, walletAddress)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.User{
		WalletAddress: walletAddress,
	}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateUser saves profile changes
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
