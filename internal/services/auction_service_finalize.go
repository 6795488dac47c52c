package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nft-marketplace/internal/models"
)

// weiDecimals converts raw contract amounts (wei) to whole-token decimals.
const weiDecimals = 18

// Finalize writes the one-time settlement result after the caller presents a
// confirmed finalize transaction. The winner and final price come from the
// contract; caller-supplied values are accepted only as a cross-check and a
// mismatch is rejected. An unreachable chain fails closed.
func (s *AuctionService) Finalize(
	ctx context.Context,
	auctionID int64,
	req *models.FinalizeAuctionRequest,
) (*models.AuctionResponse, error) {
	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := ValidateTransition(auction, models.AuctionStateFinalized, now); err != nil {
		return nil, err
	}

	chainResult, err := s.fetchChainResult(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if !chainResult.Finalized {
		return nil, fmt.Errorf("%w: contract does not report the auction finalized", ErrNotFinalized)
	}

	finalPrice := weiToDecimal(chainResult.HighestBid)

	if req.WinnerAddress != nil {
		claimed, err := normalizeAddress(*req.WinnerAddress)
		if err != nil {
			return nil, err
		}
		if common.HexToAddress(claimed) != chainResult.Winner {
			return nil, fmt.Errorf("%w: supplied winner does not match chain", ErrValidation)
		}
	}
	if req.FinalPrice != nil {
		claimed, err := parsePositiveAmount(*req.FinalPrice, "final_price")
		if err != nil {
			return nil, err
		}
		if !claimed.Equal(finalPrice) {
			return nil, fmt.Errorf("%w: supplied final price does not match chain", ErrValidation)
		}
	}

	var winnerAddress *string
	if chainResult.HasWinner() {
		addr := chainResult.Winner.Hex()
		winnerAddress = &addr
	}

	rows, err := s.repo.FinalizeAuction(ctx, auctionID, winnerAddress, finalPrice, req.TxHash, now)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize auction: %w", err)
	}
	if rows == 0 {
		// Finalize is a one-time event; losing the race means someone else
		// already finalized or the auction was cancelled meanwhile.
		fresh, loadErr := s.loadAuction(ctx, auctionID)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, fmt.Errorf("%w: %s -> FINALIZED", ErrInvalidStateTransition, fresh.State)
	}

	s.logger.Info("auction finalized",
		zap.Int64("auction_id", auctionID),
		zap.Bool("has_winner", winnerAddress != nil),
		zap.String("tx_hash", req.TxHash))

	return s.GetAuction(ctx, auctionID)
}

func weiToDecimal(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -weiDecimals)
}
