package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BidVisibility string

const (
	BidVisibilityHidden       BidVisibility = "HIDDEN"
	BidVisibilityRevealed     BidVisibility = "REVEALED"
	BidVisibilityAutoRevealed BidVisibility = "AUTO_REVEALED"
)

// AuctionBid is one row per (auction, bidder). Rows are replaced wholesale
// when the owner syncs bid history after auction end; only Visibility changes
// independently afterwards.
type AuctionBid struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AuctionID     int64           `gorm:"not null;uniqueIndex:idx_auction_bidder" json:"auction_id"`
	BidderAddress string          `gorm:"size:64;not null;uniqueIndex:idx_auction_bidder" json:"bidder_address"`
	BidAmount     decimal.Decimal `gorm:"type:decimal(30,18);not null" json:"bid_amount"`
	BidNumber     int             `gorm:"not null" json:"bid_number"`
	BidTimestamp  time.Time       `gorm:"not null" json:"bid_timestamp"`
	Visibility    BidVisibility   `gorm:"size:50;not null;default:HIDDEN" json:"visibility"`
	CreatedAt     time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AuctionBid) TableName() string {
	return "auction_bids"
}

// BidInput is one bid row inside a sync payload
type BidInput struct {
	BidderAddress string `json:"bidder_address" binding:"required"`
	BidAmount     string `json:"bid_amount" binding:"required"`
	BidNumber     int    `json:"bid_number" binding:"required,gt=0"`
	BidTimestamp  int64  `json:"bid_timestamp" binding:"required"`
	Visibility    string `json:"visibility"`
}

// SyncBidHistoryRequest replaces an auction's full bid history
type SyncBidHistoryRequest struct {
	Bids []BidInput `json:"bids" binding:"required"`
}

// UpdateVisibilityRequest changes a single bid's reveal visibility
type UpdateVisibilityRequest struct {
	Visibility string `json:"visibility" binding:"required"`
}

// BidResponse is a bid as exposed by the query surface. Hidden bids are
// masked: amount and bidder are omitted unless the requester is the bidder.
type BidResponse struct {
	AuctionID     int64            `json:"auction_id"`
	BidderAddress *string          `json:"bidder_address,omitempty"`
	BidAmount     *decimal.Decimal `json:"bid_amount,omitempty"`
	BidNumber     int              `json:"bid_number"`
	BidTimestamp  time.Time        `json:"bid_timestamp"`
	Visibility    BidVisibility    `json:"visibility"`
}
