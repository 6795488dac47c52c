package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"nft-marketplace/internal/models"
)

// ReplaceBidHistory wholesale-replaces the bid rows for an auction and
// recomputes the auction's bid counters, all inside one transaction so
// readers never observe a half-populated history.
func (r *Repository) ReplaceBidHistory(ctx context.Context, auctionID int64, bids []*models.AuctionBid) error {
	uniqueBidders := make(map[string]struct{}, len(bids))
	for _, bid := range bids {
		uniqueBidders[bid.BidderAddress] = struct{}{}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("auction_id = ?", auctionID).Delete(&models.AuctionBid{}).Error; err != nil {
			return err
		}

		if len(bids) > 0 {
			if err := tx.Create(bids).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Auction{}).
			Where("auction_id = ?", auctionID).
			Updates(map[string]interface{}{
				"total_bids":     len(bids),
				"unique_bidders": len(uniqueBidders),
				"updated_at":     time.Now(),
			}).Error
	})
}

// GetBidHistory retrieves all bids for an auction, highest amount first,
// earliest bid winning ties
func (r *Repository) GetBidHistory(ctx context.Context, auctionID int64) ([]*models.AuctionBid, error) {
	var bids []*models.AuctionBid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("bid_amount DESC").
		Order("bid_timestamp ASC").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

// UpdateBidVisibility changes one bidder's reveal visibility
func (r *Repository) UpdateBidVisibility(
	ctx context.Context,
	auctionID int64,
	bidderAddress string,
	visibility models.BidVisibility,
) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AuctionBid{}).
		Where("auction_id = ? AND bidder_address = ?", auctionID, bidderAddress).
		Updates(map[string]interface{}{
			"visibility": visibility,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
