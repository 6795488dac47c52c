package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type AuctionType string

const (
	AuctionTypeSingleAsset AuctionType = "SINGLE_ASSET"
	AuctionTypeCollection  AuctionType = "COLLECTION"
)

type AuctionState string

const (
	AuctionStateActive    AuctionState = "ACTIVE"
	AuctionStateEnded     AuctionState = "ENDED"
	AuctionStateFinalized AuctionState = "FINALIZED"
	AuctionStateCancelled AuctionState = "CANCELLED"
)

// Auction is the off-chain mirror of one on-chain sealed-bid auction.
// Economic terms and timing are immutable after the initial sync; the only
// mutable fields are State, the one-time settlement result, the claim/reclaim
// flags and UpdatedAt.
type Auction struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AuctionID     int64       `gorm:"uniqueIndex;not null" json:"auction_id"`
	AuctionType   AuctionType `gorm:"size:50;not null" json:"auction_type"`
	AssetContract string      `gorm:"size:64;not null;index" json:"asset_contract"`
	AssetID       *int64      `json:"asset_id,omitempty"`
	AssetIDs      datatypes.JSON `json:"asset_ids,omitempty"`
	SellerAddress string      `gorm:"size:64;not null;index" json:"seller_address"`

	StartingPrice   decimal.Decimal `gorm:"type:decimal(30,18);not null" json:"starting_price"`
	ReservePrice    decimal.Decimal `gorm:"type:decimal(30,18);not null" json:"reserve_price"`
	MinBidIncrement decimal.Decimal `gorm:"type:decimal(30,18);not null" json:"min_bid_increment"`

	StartTime     time.Time `gorm:"not null" json:"start_time"`
	EndTime       time.Time `gorm:"not null;index" json:"end_time"`
	DurationHours int       `gorm:"not null" json:"duration_hours"`

	State AuctionState `gorm:"size:50;not null;default:ACTIVE;index" json:"state"`

	// Settlement result, written once by finalize.
	WinnerAddress *string          `gorm:"size:64" json:"winner_address,omitempty"`
	FinalPrice    *decimal.Decimal `gorm:"type:decimal(30,18)" json:"final_price,omitempty"`
	TotalBids     int              `gorm:"not null;default:0" json:"total_bids"`
	UniqueBidders int              `gorm:"not null;default:0" json:"unique_bidders"`

	// Claim/reclaim flags are monotonic false -> true and mutually exclusive.
	AssetClaimed   bool       `gorm:"not null;default:false" json:"asset_claimed"`
	AssetReclaimed bool       `gorm:"not null;default:false" json:"asset_reclaimed"`
	ClaimTxHash    *string    `gorm:"size:255" json:"claim_tx_hash,omitempty"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	ReclaimTxHash  *string    `gorm:"size:255" json:"reclaim_tx_hash,omitempty"`
	ReclaimedAt    *time.Time `json:"reclaimed_at,omitempty"`
	FinalizeTxHash *string    `gorm:"size:255" json:"finalize_tx_hash,omitempty"`
	FinalizedAt    *time.Time `json:"finalized_at,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Auction) TableName() string {
	return "auctions"
}

// SyncAuctionRequest mirrors a freshly created on-chain auction into the store
type SyncAuctionRequest struct {
	AuctionID       int64   `json:"auction_id" binding:"required,gt=0"`
	AuctionType     string  `json:"auction_type" binding:"required"`
	AssetContract   string  `json:"asset_contract" binding:"required"`
	AssetID         *int64  `json:"asset_id"`
	AssetIDs        []int64 `json:"asset_ids"`
	StartingPrice   string  `json:"starting_price" binding:"required"`
	ReservePrice    string  `json:"reserve_price" binding:"required"`
	MinBidIncrement string  `json:"min_bid_increment" binding:"required"`
	StartTime       int64   `json:"start_time" binding:"required"`
	EndTime         int64   `json:"end_time" binding:"required"`
	DurationHours   int     `json:"duration_hours" binding:"required,gt=0"`
	TxHash          string  `json:"tx_hash" binding:"required"`
}

// UpdateStateRequest asks for an explicit state transition
type UpdateStateRequest struct {
	NewState string `json:"new_state" binding:"required"`
}

// FinalizeAuctionRequest presents proof of a confirmed finalize transaction.
// WinnerAddress and FinalPrice are optional cross-checks only; the chain
// answer always wins.
type FinalizeAuctionRequest struct {
	WinnerAddress *string `json:"winner_address"`
	FinalPrice    *string `json:"final_price"`
	TxHash        string  `json:"tx_hash" binding:"required"`
}

// SettleRequest presents proof of a confirmed claim or reclaim transaction
type SettleRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}

// AuctionResponse is an auction as exposed by the query surface.
// State is the effective state (an ACTIVE auction past its end time reads as
// ENDED) and TimeRemaining is derived at read time, never persisted.
type AuctionResponse struct {
	ID            string      `json:"id"`
	AuctionID     int64       `json:"auction_id"`
	AuctionType   AuctionType `json:"auction_type"`
	AssetContract string      `json:"asset_contract"`
	AssetID       *int64      `json:"asset_id,omitempty"`
	AssetIDs      []int64     `json:"asset_ids,omitempty"`
	SellerAddress string      `json:"seller_address"`

	StartingPrice   decimal.Decimal `json:"starting_price"`
	ReservePrice    decimal.Decimal `json:"reserve_price"`
	MinBidIncrement decimal.Decimal `json:"min_bid_increment"`

	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours int       `json:"duration_hours"`
	TimeRemaining int64     `json:"time_remaining"`

	State AuctionState `json:"state"`

	WinnerAddress *string          `json:"winner_address,omitempty"`
	FinalPrice    *decimal.Decimal `json:"final_price,omitempty"`
	TotalBids     int              `json:"total_bids"`
	UniqueBidders int              `json:"unique_bidders"`

	AssetClaimed   bool       `json:"asset_claimed"`
	AssetReclaimed bool       `json:"asset_reclaimed"`
	ClaimTxHash    *string    `json:"claim_tx_hash,omitempty"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	ReclaimTxHash  *string    `json:"reclaim_tx_hash,omitempty"`
	ReclaimedAt    *time.Time `json:"reclaimed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettlementResponse is returned by claim/reclaim
type SettlementResponse struct {
	AuctionID      int64      `json:"auction_id"`
	AssetClaimed   bool       `json:"asset_claimed"`
	AssetReclaimed bool       `json:"asset_reclaimed"`
	ClaimTxHash    *string    `json:"claim_tx_hash,omitempty"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	ReclaimTxHash  *string    `json:"reclaim_tx_hash,omitempty"`
	ReclaimedAt    *time.Time `json:"reclaimed_at,omitempty"`
	AlreadyDone    bool       `json:"already_done"`
}

// AuctionListFilter narrows the paginated auction listing
type AuctionListFilter struct {
	State         *AuctionState
	SellerAddress *string
	AuctionType   *AuctionType
	Limit         int
	Offset        int
}
