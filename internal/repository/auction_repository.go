package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nft-marketplace/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateAuction mirrors a new on-chain auction into the store
func (r *Repository) CreateAuction(ctx context.Context, auction *models.Auction) error {
	return r.db.WithContext(ctx).Create(auction).Error
}

// GetAuctionByAuctionID retrieves an auction by its chain-assigned ID
func (r *Repository) GetAuctionByAuctionID(ctx context.Context, auctionID int64) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).Where("auction_id = ?", auctionID).First(&auction).Error
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

// ListAuctions retrieves auctions matching the filter with total count
func (r *Repository) ListAuctions(ctx context.Context, filter models.AuctionListFilter) ([]*models.Auction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Auction{})

	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.SellerAddress != nil {
		query = query.Where("seller_address = ?", *filter.SellerAddress)
	}
	if filter.AuctionType != nil {
		query = query.Where("auction_type = ?", *filter.AuctionType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var auctions []*models.Auction
	err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&auctions).Error
	if err != nil {
		return nil, 0, err
	}

	return auctions, total, nil
}

// TransitionState advances an auction between two explicit states. The guard
// on the current state makes concurrent transitions race-safe: only one
// caller observes rows affected.
func (r *Repository) TransitionState(
	ctx context.Context,
	auctionID int64,
	from, to models.AuctionState,
) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("auction_id = ? AND state = ?", auctionID, from).
		Updates(map[string]interface{}{
			"state":      to,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// CancelAuction cancels an ACTIVE auction, guarded against any committed bid
func (r *Repository) CancelAuction(ctx context.Context, auctionID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("auction_id = ? AND state = ? AND total_bids = 0", auctionID, models.AuctionStateActive).
		Updates(map[string]interface{}{
			"state":      models.AuctionStateCancelled,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// FinalizeAuction writes the one-time settlement result atomically with the
// state change. The state guard enforces finalize-exactly-once.
func (r *Repository) FinalizeAuction(
	ctx context.Context,
	auctionID int64,
	winnerAddress *string,
	finalPrice decimal.Decimal,
	txHash string,
	finalizedAt time.Time,
) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("auction_id = ? AND state IN ?", auctionID, []models.AuctionState{
			models.AuctionStateActive,
			models.AuctionStateEnded,
		}).
		Updates(map[string]interface{}{
			"state":            models.AuctionStateFinalized,
			"winner_address":   winnerAddress,
			"final_price":      finalPrice,
			"finalize_tx_hash": txHash,
			"finalized_at":     finalizedAt,
			"updated_at":       finalizedAt,
		})
	return result.RowsAffected, result.Error
}

// MarkAssetClaimed flips the claim flag under a compare-and-set guard so two
// concurrent claims cannot both pass the not-yet-claimed check
func (r *Repository) MarkAssetClaimed(
	ctx context.Context,
	auctionID int64,
	txHash string,
	claimedAt time.Time,
) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("auction_id = ? AND state = ? AND asset_claimed = ? AND asset_reclaimed = ?",
			auctionID, models.AuctionStateFinalized, false, false).
		Updates(map[string]interface{}{
			"asset_claimed": true,
			"claim_tx_hash": txHash,
			"claimed_at":    claimedAt,
			"updated_at":    claimedAt,
		})
	return result.RowsAffected, result.Error
}

// MarkAssetReclaimed flips the reclaim flag under the same compare-and-set guard
func (r *Repository) MarkAssetReclaimed(
	ctx context.Context,
	auctionID int64,
	txHash string,
	reclaimedAt time.Time,
) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("auction_id = ? AND state = ? AND asset_claimed = ? AND asset_reclaimed = ?",
			auctionID, models.AuctionStateFinalized, false, false).
		Updates(map[string]interface{}{
			"asset_reclaimed": true,
			"reclaim_tx_hash": txHash,
			"reclaimed_at":    reclaimedAt,
			"updated_at":      reclaimedAt,
		})
	return result.RowsAffected, result.Error
}

// MarkExpiredEnded advances stored ACTIVE auctions past their end time to ENDED
func (r *Repository) MarkExpiredEnded(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("state = ? AND end_time < ?", models.AuctionStateActive, now).
		Updates(map[string]interface{}{
			"state":      models.AuctionStateEnded,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
