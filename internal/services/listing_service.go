package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nft-marketplace/internal/models"
	"nft-marketplace/internal/repository"
)

// ListingService is thin fixed-price CRUD glue. Sales happen on-chain; rows
// here only mirror them for fast reads.
type ListingService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewListingService(repo *repository.Repository, logger *zap.Logger) *ListingService {
	return &ListingService{repo: repo, logger: logger}
}

// CreateListing lists an asset for fixed-price sale
func (s *ListingService) CreateListing(
	ctx context.Context,
	sellerAddress string,
	req *models.CreateListingRequest,
) (*models.Listing, error) {
	seller, err := normalizeAddress(sellerAddress)
	if err != nil {
		return nil, err
	}
	assetContract, err := normalizeAddress(req.AssetContract)
	if err != nil {
		return nil, err
	}
	price, err := parsePositiveAmount(req.Price, "price")
	if err != nil {
		return nil, err
	}

	listing := &models.Listing{
		ID:            uuid.New(),
		SellerAddress: seller,
		AssetContract: assetContract,
		AssetID:       req.AssetID,
		Price:         price,
		Status:        models.ListingStatusListed,
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.Info("listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("seller", seller))

	return listing, nil
}

// GetListing retrieves a listing by ID
func (s *ListingService) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.GetListingByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: listing %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// ListListings retrieves a filtered, paginated page of listings
func (s *ListingService) ListListings(
	ctx context.Context,
	status *models.ListingStatus,
	seller *string,
	limit, offset int,
) ([]*models.Listing, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if seller != nil {
		normalized, err := normalizeAddress(*seller)
		if err != nil {
			return nil, 0, err
		}
		seller = &normalized
	}
	return s.repo.ListListings(ctx, status, seller, limit, offset)
}

// Delist withdraws a listing; only the seller may delist and only while LISTED
func (s *ListingService) Delist(ctx context.Context, id uuid.UUID, sellerAddress string) error {
	seller, err := normalizeAddress(sellerAddress)
	if err != nil {
		return err
	}

	rows, err := s.repo.DelistListing(ctx, id, seller)
	if err != nil {
		return fmt.Errorf("failed to delist: %w", err)
	}
	if rows == 0 {
		listing, loadErr := s.GetListing(ctx, id)
		if loadErr != nil {
			return loadErr
		}
		if listing.SellerAddress != seller {
			return fmt.Errorf("%w: only the seller can delist", ErrNotSeller)
		}
		return fmt.Errorf("%w: listing is %s", ErrInvalidStateTransition, listing.Status)
	}
	return nil
}

// Purchase records a confirmed on-chain sale. The LISTED guard means a sale
// can only be recorded once even under concurrent retries.
func (s *ListingService) Purchase(
	ctx context.Context,
	id uuid.UUID,
	buyerAddress string,
	req *models.PurchaseListingRequest,
) (*models.Listing, error) {
	buyer, err := normalizeAddress(buyerAddress)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.MarkListingSold(ctx, id, buyer, req.TxHash, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}
	if rows == 0 {
		listing, loadErr := s.GetListing(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, fmt.Errorf("%w: listing is %s", ErrInvalidStateTransition, listing.Status)
	}

	s.logger.Info("listing sold",
		zap.String("listing_id", id.String()),
		zap.String("buyer", buyer),
		zap.String("tx_hash", req.TxHash))

	return s.GetListing(ctx, id)
}
