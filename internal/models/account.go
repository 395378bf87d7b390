package models

import (
	"database/sql"
	"time"
)

// User represents a registered platform account
type User struct {
	ID            int64          `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Username      string         `gorm:"type:varchar(32);not null;uniqueIndex:users_username_ux;column:username" json:"username"`
	Email         string         `gorm:"type:varchar(255);not null;uniqueIndex:users_email_ux;column:email" json:"-"`
	PasswordHash  string         `gorm:"type:varchar(100);not null;column:password_hash" json:"-"`
	WalletAddress sql.NullString `gorm:"type:varchar(66);index;column:wallet_address" json:"-"`
	DisplayName   string         `gorm:"type:varchar(64);not null;default:'';column:display_name" json:"display_name"`
	Bio           string         `gorm:"type:varchar(500);not null;default:'';column:bio" json:"bio"`
	AvatarURL     string         `gorm:"type:varchar(1024);not null;default:'';column:avatar_url" json:"avatar_url"`
	CreatedAt     time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Wallet returns the user's wallet address or "" when none is linked.
func (u *User) Wallet() string {
	if u == nil || !u.WalletAddress.Valid {
		return ""
	}
	return u.WalletAddress.String
}
