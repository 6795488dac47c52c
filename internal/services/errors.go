package services

import "errors"

// Typed failures for the projection API. Handlers map these to HTTP codes
// with errors.Is; everything else surfaces as an internal error.
var (
	// ErrNotFound means the referenced auction, bid or listing row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition means the requested state change violates the
	// auction state machine.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrNotFinalized means a settlement action was attempted before the
	// auction reached FINALIZED.
	ErrNotFinalized = errors.New("auction not finalized")

	// ErrAlreadyClaimed and ErrAlreadyReclaimed are idempotent no-op signals:
	// a retrying client can treat them as success.
	ErrAlreadyClaimed   = errors.New("asset already claimed")
	ErrAlreadyReclaimed = errors.New("asset already reclaimed")

	// ErrNoWinner means the contract reports no real finalized winner.
	ErrNoWinner = errors.New("no winner on chain")

	// ErrNotWinner means the actor is not the authoritative on-chain winner.
	ErrNotWinner = errors.New("actor is not the winner")

	// ErrNotSeller means the actor is not the auction's seller.
	ErrNotSeller = errors.New("actor is not the seller")

	// ErrWinnerExists means the contract reports a real winner, so the seller
	// cannot reclaim an asset that in fact sold.
	ErrWinnerExists = errors.New("auction has a winner on chain")

	// ErrChainUnavailable means the reconciliation client could not reach the
	// chain. Never substituted with a default winner; callers retry after backoff.
	ErrChainUnavailable = errors.New("chain unavailable")

	// ErrValidation means malformed input, rejected before any store access.
	ErrValidation = errors.New("validation error")

	// ErrAlreadyExists means the auction was already synced into the mirror.
	ErrAlreadyExists = errors.New("already exists")
)
