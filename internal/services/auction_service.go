package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nft-marketplace/internal/blockchain"
	"nft-marketplace/internal/models"
	"nft-marketplace/internal/repository"
)

// ChainReader fetches authoritative auction fields from the contract,
// bypassing the off-chain mirror
type ChainReader interface {
	FetchAuthoritativeWinner(ctx context.Context, auctionID uint64) (*blockchain.AuctionResult, error)
}

// AuctionService is the projection API: it keeps the relational mirror of the
// sealed-bid auction contract in sync and gates all settlement writes.
type AuctionService struct {
	repo   *repository.Repository
	chain  ChainReader
	logger *zap.Logger
}

func NewAuctionService(repo *repository.Repository, chain ChainReader, logger *zap.Logger) *AuctionService {
	return &AuctionService{
		repo:   repo,
		chain:  chain,
		logger: logger,
	}
}

// SyncAuction mirrors a freshly created on-chain auction into the store
func (s *AuctionService) SyncAuction(
	ctx context.Context,
	sellerAddress string,
	req *models.SyncAuctionRequest,
) (*models.AuctionResponse, error) {
	seller, err := normalizeAddress(sellerAddress)
	if err != nil {
		return nil, err
	}

	auctionType := models.AuctionType(req.AuctionType)
	switch auctionType {
	case models.AuctionTypeSingleAsset:
		if req.AssetID == nil || len(req.AssetIDs) > 0 {
			return nil, fmt.Errorf("%w: SINGLE_ASSET auction requires exactly asset_id", ErrValidation)
		}
	case models.AuctionTypeCollection:
		if len(req.AssetIDs) == 0 || req.AssetID != nil {
			return nil, fmt.Errorf("%w: COLLECTION auction requires asset_ids", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown auction type %q", ErrValidation, req.AuctionType)
	}

	assetContract, err := normalizeAddress(req.AssetContract)
	if err != nil {
		return nil, err
	}

	startingPrice, err := parsePositiveAmount(req.StartingPrice, "starting_price")
	if err != nil {
		return nil, err
	}
	reservePrice, err := parsePositiveAmount(req.ReservePrice, "reserve_price")
	if err != nil {
		return nil, err
	}
	minIncrement, err := parsePositiveAmount(req.MinBidIncrement, "min_bid_increment")
	if err != nil {
		return nil, err
	}

	startTime := time.Unix(req.StartTime, 0).UTC()
	endTime := time.Unix(req.EndTime, 0).UTC()
	if !endTime.After(startTime) {
		return nil, fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}

	if _, err := s.repo.GetAuctionByAuctionID(ctx, req.AuctionID); err == nil {
		return nil, fmt.Errorf("%w: auction %d already synced", ErrAlreadyExists, req.AuctionID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing auction: %w", err)
	}

	auction := &models.Auction{
		ID:              uuid.New(),
		AuctionID:       req.AuctionID,
		AuctionType:     auctionType,
		AssetContract:   assetContract,
		AssetID:         req.AssetID,
		SellerAddress:   seller,
		StartingPrice:   startingPrice,
		ReservePrice:    reservePrice,
		MinBidIncrement: minIncrement,
		StartTime:       startTime,
		EndTime:         endTime,
		DurationHours:   req.DurationHours,
		State:           models.AuctionStateActive,
	}

	if auctionType == models.AuctionTypeCollection {
		raw, err := json.Marshal(req.AssetIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode asset ids: %w", err)
		}
		auction.AssetIDs = datatypes.JSON(raw)
	}

	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	s.logger.Info("auction synced",
		zap.Int64("auction_id", auction.AuctionID),
		zap.String("seller", seller),
		zap.String("type", string(auctionType)))

	return toAuctionResponse(auction, time.Now()), nil
}

// GetAuction retrieves one auction with derived fields
func (s *AuctionService) GetAuction(ctx context.Context, auctionID int64) (*models.AuctionResponse, error) {
	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return toAuctionResponse(auction, time.Now()), nil
}

// ListAuctions retrieves a filtered, paginated page of auctions
func (s *AuctionService) ListAuctions(
	ctx context.Context,
	filter models.AuctionListFilter,
) ([]*models.AuctionResponse, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.SellerAddress != nil {
		seller, err := normalizeAddress(*filter.SellerAddress)
		if err != nil {
			return nil, 0, err
		}
		filter.SellerAddress = &seller
	}

	auctions, total, err := s.repo.ListAuctions(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list auctions: %w", err)
	}

	now := time.Now()
	responses := make([]*models.AuctionResponse, 0, len(auctions))
	for _, auction := range auctions {
		responses = append(responses, toAuctionResponse(auction, now))
	}
	return responses, total, nil
}

// UpdateState performs an explicit state transition: observing expiry
// (ACTIVE -> ENDED) or a seller cancelling a bid-free auction.
func (s *AuctionService) UpdateState(
	ctx context.Context,
	auctionID int64,
	actorAddress string,
	newState string,
) (*models.AuctionResponse, error) {
	target := models.AuctionState(newState)
	if target != models.AuctionStateEnded && target != models.AuctionStateCancelled {
		return nil, fmt.Errorf("%w: state %q cannot be requested directly", ErrValidation, newState)
	}

	actor, err := normalizeAddress(actorAddress)
	if err != nil {
		return nil, err
	}

	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := ValidateTransition(auction, target, now); err != nil {
		return nil, err
	}

	var rows int64
	switch target {
	case models.AuctionStateEnded:
		rows, err = s.repo.TransitionState(ctx, auctionID, models.AuctionStateActive, models.AuctionStateEnded)
	case models.AuctionStateCancelled:
		if actor != auction.SellerAddress {
			return nil, fmt.Errorf("%w: only the seller can cancel", ErrNotSeller)
		}
		rows, err = s.repo.CancelAuction(ctx, auctionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update auction state: %w", err)
	}

	if rows == 0 {
		// Lost a race; report against the fresh row.
		fresh, loadErr := s.loadAuction(ctx, auctionID)
		if loadErr != nil {
			return nil, loadErr
		}
		if fresh.State == target {
			return toAuctionResponse(fresh, now), nil
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, fresh.State, target)
	}

	s.logger.Info("auction state updated",
		zap.Int64("auction_id", auctionID),
		zap.String("new_state", string(target)))

	return s.GetAuction(ctx, auctionID)
}

// AdvanceExpired moves stored ACTIVE auctions past their end time to ENDED.
// Used by the optional reconciliation sweep; the read path derives the same
// answer lazily, so this only makes the stored state catch up.
func (s *AuctionService) AdvanceExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkExpiredEnded(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to advance expired auctions: %w", err)
	}
	if count > 0 {
		s.logger.Info("advanced expired auctions to ENDED", zap.Int64("count", count))
	}
	return count, nil
}

func (s *AuctionService) loadAuction(ctx context.Context, auctionID int64) (*models.Auction, error) {
	auction, err := s.repo.GetAuctionByAuctionID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: auction %d", ErrNotFound, auctionID)
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return auction, nil
}

func toAuctionResponse(a *models.Auction, now time.Time) *models.AuctionResponse {
	resp := &models.AuctionResponse{
		ID:              a.ID.String(),
		AuctionID:       a.AuctionID,
		AuctionType:     a.AuctionType,
		AssetContract:   a.AssetContract,
		AssetID:         a.AssetID,
		SellerAddress:   a.SellerAddress,
		StartingPrice:   a.StartingPrice,
		ReservePrice:    a.ReservePrice,
		MinBidIncrement: a.MinBidIncrement,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		DurationHours:   a.DurationHours,
		TimeRemaining:   TimeRemaining(a, now),
		State:           EffectiveState(a, now),
		WinnerAddress:   a.WinnerAddress,
		FinalPrice:      a.FinalPrice,
		TotalBids:       a.TotalBids,
		UniqueBidders:   a.UniqueBidders,
		AssetClaimed:    a.AssetClaimed,
		AssetReclaimed:  a.AssetReclaimed,
		ClaimTxHash:     a.ClaimTxHash,
		ClaimedAt:       a.ClaimedAt,
		ReclaimTxHash:   a.ReclaimTxHash,
		ReclaimedAt:     a.ReclaimedAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}

	if len(a.AssetIDs) > 0 {
		var ids []int64
		if err := json.Unmarshal(a.AssetIDs, &ids); err == nil {
			resp.AssetIDs = ids
		}
	}

	return resp
}

// normalizeAddress validates and checksums an EVM address so stored values
// compare equal regardless of input casing
func normalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: invalid address %q", ErrValidation, address)
	}
	return common.HexToAddress(address).Hex(), nil
}

func parsePositiveAmount(value, field string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s is not a decimal amount", ErrValidation, field)
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive", ErrValidation, field)
	}
	return amount, nil
}
