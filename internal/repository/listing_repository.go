package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nft-marketplace/internal/models"
)

// CreateListing creates a new fixed-price listing
func (r *Repository) CreateListing(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// GetListingByID retrieves a listing by ID
func (r *Repository) GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListListings retrieves listings with optional status/seller filters and total count
func (r *Repository) ListListings(
	ctx context.Context,
	status *models.ListingStatus,
	seller *string,
	limit, offset int,
) ([]*models.Listing, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Listing{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if seller != nil {
		query = query.Where("seller_address = ?", *seller)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listings []*models.Listing
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

// DelistListing withdraws a listing, guarded on it still being LISTED
func (r *Repository) DelistListing(ctx context.Context, id uuid.UUID, seller string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND seller_address = ? AND status = ?", id, seller, models.ListingStatusListed).
		Updates(map[string]interface{}{
			"status":     models.ListingStatusDelisted,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// MarkListingSold records a confirmed purchase, guarded on LISTED so a sale
// can only be recorded once
func (r *Repository) MarkListingSold(
	ctx context.Context,
	id uuid.UUID,
	buyer, txHash string,
	soldAt time.Time,
) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, models.ListingStatusListed).
		Updates(map[string]interface{}{
			"status":        models.ListingStatusSold,
			"buyer_address": buyer,
			"sale_tx_hash":  txHash,
			"sold_at":       soldAt,
			"updated_at":    soldAt,
		})
	return result.RowsAffected, result.Error
}
