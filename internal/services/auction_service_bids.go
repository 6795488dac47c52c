package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nft-marketplace/internal/models"
)

// ReplaceBidHistory wholesale-replaces an auction's bid rows from chain data.
// Only the seller may sync, and only once the auction has ended; the replace
// itself is transactional so readers never see a mixed old/new history.
func (s *AuctionService) ReplaceBidHistory(
	ctx context.Context,
	auctionID int64,
	actorAddress string,
	req *models.SyncBidHistoryRequest,
) ([]*models.BidResponse, error) {
	actor, err := normalizeAddress(actorAddress)
	if err != nil {
		return nil, err
	}

	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if actor != auction.SellerAddress {
		return nil, fmt.Errorf("%w: only the seller can sync bid history", ErrNotSeller)
	}

	now := time.Now()
	switch EffectiveState(auction, now) {
	case models.AuctionStateEnded, models.AuctionStateFinalized:
	default:
		return nil, fmt.Errorf("%w: bid history syncs only after auction end", ErrInvalidStateTransition)
	}

	bids := make([]*models.AuctionBid, 0, len(req.Bids))
	seen := make(map[string]struct{}, len(req.Bids))
	for i, input := range req.Bids {
		bidder, err := normalizeAddress(input.BidderAddress)
		if err != nil {
			return nil, fmt.Errorf("%w: bid %d has an invalid bidder address", ErrValidation, i)
		}
		if _, dup := seen[bidder]; dup {
			return nil, fmt.Errorf("%w: duplicate bidder %s in payload", ErrValidation, bidder)
		}
		seen[bidder] = struct{}{}

		amount, err := parsePositiveAmount(input.BidAmount, "bid_amount")
		if err != nil {
			return nil, err
		}
		if input.BidTimestamp <= 0 {
			return nil, fmt.Errorf("%w: bid %d has an invalid timestamp", ErrValidation, i)
		}

		visibility := models.BidVisibilityHidden
		switch models.BidVisibility(input.Visibility) {
		case models.BidVisibilityHidden, "":
		case models.BidVisibilityAutoRevealed:
			visibility = models.BidVisibilityAutoRevealed
		default:
			return nil, fmt.Errorf("%w: sync accepts only HIDDEN or AUTO_REVEALED visibility", ErrValidation)
		}

		bids = append(bids, &models.AuctionBid{
			ID:            uuid.New(),
			AuctionID:     auctionID,
			BidderAddress: bidder,
			BidAmount:     amount,
			BidNumber:     input.BidNumber,
			BidTimestamp:  time.Unix(input.BidTimestamp, 0).UTC(),
			Visibility:    visibility,
		})
	}

	if err := s.repo.ReplaceBidHistory(ctx, auctionID, bids); err != nil {
		return nil, fmt.Errorf("failed to replace bid history: %w", err)
	}

	s.logger.Info("bid history synced",
		zap.Int64("auction_id", auctionID),
		zap.Int("bids", len(bids)))

	return s.GetBidHistory(ctx, auctionID, &actor)
}

// GetBidHistory returns the auction's bids sorted highest amount first, ties
// broken by earliest timestamp. Hidden rows are masked unless the requester
// is the bidder.
func (s *AuctionService) GetBidHistory(
	ctx context.Context,
	auctionID int64,
	requesterAddress *string,
) ([]*models.BidResponse, error) {
	if _, err := s.loadAuction(ctx, auctionID); err != nil {
		return nil, err
	}

	bids, err := s.repo.GetBidHistory(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bid history: %w", err)
	}

	var requester string
	if requesterAddress != nil {
		if normalized, err := normalizeAddress(*requesterAddress); err == nil {
			requester = normalized
		}
	}

	responses := make([]*models.BidResponse, 0, len(bids))
	for _, bid := range bids {
		resp := &models.BidResponse{
			AuctionID:    bid.AuctionID,
			BidNumber:    bid.BidNumber,
			BidTimestamp: bid.BidTimestamp,
			Visibility:   bid.Visibility,
		}
		if bid.Visibility != models.BidVisibilityHidden || bid.BidderAddress == requester {
			bidder := bid.BidderAddress
			amount := bid.BidAmount
			resp.BidderAddress = &bidder
			resp.BidAmount = &amount
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

// SetBidVisibility changes a single bidder's reveal visibility after
// finalization. Each bidder's reveal is independent; no ordering is implied.
func (s *AuctionService) SetBidVisibility(
	ctx context.Context,
	auctionID int64,
	actorAddress string,
	bidderAddress string,
	visibility string,
) error {
	actor, err := normalizeAddress(actorAddress)
	if err != nil {
		return err
	}
	bidder, err := normalizeAddress(bidderAddress)
	if err != nil {
		return err
	}

	target := models.BidVisibility(visibility)
	switch target {
	case models.BidVisibilityHidden, models.BidVisibilityRevealed, models.BidVisibilityAutoRevealed:
	default:
		return fmt.Errorf("%w: unknown visibility %q", ErrValidation, visibility)
	}

	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	if actor != auction.SellerAddress {
		return fmt.Errorf("%w: only the seller can change reveal visibility", ErrNotSeller)
	}
	if EffectiveState(auction, time.Now()) != models.AuctionStateFinalized {
		return fmt.Errorf("%w: reveal visibility changes only after finalization", ErrInvalidStateTransition)
	}

	rows, err := s.repo.UpdateBidVisibility(ctx, auctionID, bidder, target)
	if err != nil {
		return fmt.Errorf("failed to update bid visibility: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: no bid by %s on auction %d", ErrNotFound, bidder, auctionID)
	}

	s.logger.Info("bid visibility updated",
		zap.Int64("auction_id", auctionID),
		zap.String("bidder", bidder),
		zap.String("visibility", string(target)))

	return nil
}
