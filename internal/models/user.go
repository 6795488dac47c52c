package models

import (
	"time"
)

// User represents a marketplace user keyed by wallet address
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;not null" json:"wallet_address"`
	Username      string    `gorm:"size:255" json:"username"`
	AvatarURL     *string   `gorm:"size:500" json:"avatar_url,omitempty"`
	Bio           *string   `gorm:"size:1000" json:"bio,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// UpdateProfileRequest updates the caller's profile fields
type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
}
