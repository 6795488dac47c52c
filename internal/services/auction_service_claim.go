package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"nft-marketplace/internal/blockchain"
	"nft-marketplace/internal/models"
)

// Claim marks the auctioned asset as taken by the winner. The winner identity
// is read from the contract at call time; the projection's own winner field is
// never trusted because it may be stale or client-supplied. The flag write is
// a compare-and-set, so a concurrent duplicate claim loses the race and is
// reported as already done.
func (s *AuctionService) Claim(
	ctx context.Context,
	auctionID int64,
	actorAddress string,
	txHash string,
) (*models.SettlementResponse, error) {
	actor, err := normalizeAddress(actorAddress)
	if err != nil {
		return nil, err
	}
	if txHash == "" {
		return nil, fmt.Errorf("%w: tx_hash is required", ErrValidation)
	}

	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if auction.State != models.AuctionStateFinalized {
		return nil, fmt.Errorf("%w: current state %s", ErrNotFinalized, auction.State)
	}

	// Idempotent short-circuit: a retried claim reports already-done instead
	// of an error masking success.
	if auction.AssetClaimed {
		return settlementResponse(auction, true), ErrAlreadyClaimed
	}

	chainResult, err := s.fetchChainResult(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if err := CanClaim(auction, common.HexToAddress(actor), chainResult); err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			return settlementResponse(auction, true), err
		}
		return nil, err
	}

	now := time.Now()
	rows, err := s.repo.MarkAssetClaimed(ctx, auctionID, txHash, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record claim: %w", err)
	}
	if rows == 0 {
		// Another claim won the compare-and-set between our read and write.
		fresh, loadErr := s.loadAuction(ctx, auctionID)
		if loadErr != nil {
			return nil, loadErr
		}
		if fresh.AssetClaimed {
			return settlementResponse(fresh, true), ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("%w: auction no longer claimable", ErrInvalidStateTransition)
	}

	s.logger.Info("asset claimed",
		zap.Int64("auction_id", auctionID),
		zap.String("winner", actor),
		zap.String("tx_hash", txHash))

	fresh, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return settlementResponse(fresh, false), nil
}

// Reclaim marks the asset as recovered by the seller after the auction
// finalized with no real winner. The no-winner fact is read from the
// contract, guarding against a seller reclaiming an asset that in fact sold.
func (s *AuctionService) Reclaim(
	ctx context.Context,
	auctionID int64,
	actorAddress string,
	txHash string,
) (*models.SettlementResponse, error) {
	actor, err := normalizeAddress(actorAddress)
	if err != nil {
		return nil, err
	}
	if txHash == "" {
		return nil, fmt.Errorf("%w: tx_hash is required", ErrValidation)
	}

	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if auction.State != models.AuctionStateFinalized {
		return nil, fmt.Errorf("%w: current state %s", ErrNotFinalized, auction.State)
	}

	if auction.AssetReclaimed {
		return settlementResponse(auction, true), ErrAlreadyReclaimed
	}

	chainResult, err := s.fetchChainResult(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if err := CanReclaim(auction, common.HexToAddress(actor), chainResult); err != nil {
		if errors.Is(err, ErrAlreadyReclaimed) {
			return settlementResponse(auction, true), err
		}
		return nil, err
	}

	now := time.Now()
	rows, err := s.repo.MarkAssetReclaimed(ctx, auctionID, txHash, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record reclaim: %w", err)
	}
	if rows == 0 {
		fresh, loadErr := s.loadAuction(ctx, auctionID)
		if loadErr != nil {
			return nil, loadErr
		}
		if fresh.AssetReclaimed {
			return settlementResponse(fresh, true), ErrAlreadyReclaimed
		}
		return nil, fmt.Errorf("%w: auction no longer reclaimable", ErrInvalidStateTransition)
	}

	s.logger.Info("asset reclaimed",
		zap.Int64("auction_id", auctionID),
		zap.String("seller", actor),
		zap.String("tx_hash", txHash))

	fresh, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return settlementResponse(fresh, false), nil
}

// fetchChainResult consults the reconciliation client and fails closed:
// an unreachable chain never degrades into a default winner.
func (s *AuctionService) fetchChainResult(ctx context.Context, auctionID int64) (*blockchain.AuctionResult, error) {
	result, err := s.chain.FetchAuthoritativeWinner(ctx, uint64(auctionID))
	if err != nil {
		s.logger.Warn("reconciliation client unavailable",
			zap.Int64("auction_id", auctionID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	return result, nil
}

func settlementResponse(a *models.Auction, alreadyDone bool) *models.SettlementResponse {
	return &models.SettlementResponse{
		AuctionID:      a.AuctionID,
		AssetClaimed:   a.AssetClaimed,
		AssetReclaimed: a.AssetReclaimed,
		ClaimTxHash:    a.ClaimTxHash,
		ClaimedAt:      a.ClaimedAt,
		ReclaimTxHash:  a.ReclaimTxHash,
		ReclaimedAt:    a.ReclaimedAt,
		AlreadyDone:    alreadyDone,
	}
}
