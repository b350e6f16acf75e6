package storage

import (
	"time"

	"gorm.io/datatypes"
)

// User is the persisted credential record.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:50;not null" json:"name"`
	Surname      string    `gorm:"size:50;not null" json:"surname"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// RefreshToken is the relational representation of a refresh token record.
// Revocation flips the flag; physical deletion is left to the cleanup
// sweeper so rotation history survives until the next sweep.
type RefreshToken struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Token     string         `gorm:"uniqueIndex;not null" json:"token"`
	UserID    string         `gorm:"index;size:36;not null" json:"user_id"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
	Revoked   bool           `gorm:"index;default:false" json:"revoked"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
