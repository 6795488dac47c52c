package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingStatusListed   ListingStatus = "LISTED"
	ListingStatusSold     ListingStatus = "SOLD"
	ListingStatusDelisted ListingStatus = "DELISTED"
)

// Listing is a fixed-price sale mirror. The sale itself happens on-chain;
// the row records it for fast reads.
type Listing struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SellerAddress string          `gorm:"size:64;not null;index" json:"seller_address"`
	AssetContract string          `gorm:"size:64;not null;index" json:"asset_contract"`
	AssetID       int64           `gorm:"not null" json:"asset_id"`
	Price         decimal.Decimal `gorm:"type:decimal(30,18);not null" json:"price"`
	Status        ListingStatus   `gorm:"size:50;not null;default:LISTED;index" json:"status"`
	BuyerAddress  *string         `gorm:"size:64" json:"buyer_address,omitempty"`
	SaleTxHash    *string         `gorm:"size:255" json:"sale_tx_hash,omitempty"`
	SoldAt        *time.Time      `json:"sold_at,omitempty"`
	CreatedAt     time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// CreateListingRequest lists an asset for fixed-price sale
type CreateListingRequest struct {
	AssetContract string `json:"asset_contract" binding:"required"`
	AssetID       int64  `json:"asset_id" binding:"required"`
	Price         string `json:"price" binding:"required"`
}

// PurchaseListingRequest records a confirmed on-chain purchase
type PurchaseListingRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}
