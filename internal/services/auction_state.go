package services

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nft-marketplace/internal/blockchain"
	"nft-marketplace/internal/models"
)

// Pure state-machine and settlement-legality predicates. Nothing in this file
// touches storage or the network; the service composes these with the store
// and the reconciliation client.

// EffectiveState derives the externally visible state: an ACTIVE auction past
// its end time reads as ENDED without requiring a background job.
func EffectiveState(a *models.Auction, now time.Time) models.AuctionState {
	if a.State == models.AuctionStateActive && now.After(a.EndTime) {
		return models.AuctionStateEnded
	}
	return a.State
}

// TimeRemaining derives the seconds until end, floored at zero. Computed at
// read time, never persisted.
func TimeRemaining(a *models.Auction, now time.Time) int64 {
	if EffectiveState(a, now) != models.AuctionStateActive {
		return 0
	}
	remaining := a.EndTime.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int64(remaining.Seconds())
}

// ValidateTransition enforces the auction state machine for an explicit
// transition request. Actor checks (seller-only cancel) live with the caller.
func ValidateTransition(a *models.Auction, to models.AuctionState, now time.Time) error {
	switch to {
	case models.AuctionStateEnded:
		if a.State != models.AuctionStateActive {
			return fmt.Errorf("%w: %s -> ENDED", ErrInvalidStateTransition, a.State)
		}
		if !now.After(a.EndTime) {
			return fmt.Errorf("%w: auction has not reached its end time", ErrInvalidStateTransition)
		}
		return nil
	case models.AuctionStateCancelled:
		if a.State != models.AuctionStateActive {
			return fmt.Errorf("%w: %s -> CANCELLED", ErrInvalidStateTransition, a.State)
		}
		if a.TotalBids > 0 {
			return fmt.Errorf("%w: auction has committed bids", ErrInvalidStateTransition)
		}
		return nil
	case models.AuctionStateFinalized:
		if EffectiveState(a, now) != models.AuctionStateEnded {
			return fmt.Errorf("%w: %s -> FINALIZED", ErrInvalidStateTransition, a.State)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, a.State, to)
	}
}

// CanClaim checks settlement-action legality for a winner claiming the asset.
// The winner identity comes from the chain result, never from the projection
// or caller input.
func CanClaim(a *models.Auction, actor common.Address, chain *blockchain.AuctionResult) error {
	if a.State != models.AuctionStateFinalized {
		return fmt.Errorf("%w: current state %s", ErrNotFinalized, a.State)
	}
	if a.AssetClaimed {
		return ErrAlreadyClaimed
	}
	if !chain.Finalized || !chain.HasWinner() {
		return ErrNoWinner
	}
	if actor != chain.Winner {
		return ErrNotWinner
	}
	return nil
}

// CanReclaim checks settlement-action legality for a seller recovering an
// asset that found no valid winner.
func CanReclaim(a *models.Auction, actor common.Address, chain *blockchain.AuctionResult) error {
	if a.State != models.AuctionStateFinalized {
		return fmt.Errorf("%w: current state %s", ErrNotFinalized, a.State)
	}
	if a.AssetReclaimed {
		return ErrAlreadyReclaimed
	}
	if actor != common.HexToAddress(a.SellerAddress) {
		return ErrNotSeller
	}
	if !chain.Finalized {
		return fmt.Errorf("%w: contract does not report the auction finalized", ErrNotFinalized)
	}
	if chain.HasWinner() {
		return ErrWinnerExists
	}
	return nil
}
