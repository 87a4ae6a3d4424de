package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// User is an account: identity plus the materialized coin balance.
// CoinBalance is only ever written together with a ledger entry.
type User struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string           `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	FirstName    string           `gorm:"column:first_name;not null"`
	LastName     string           `gorm:"column:last_name;not null"`
	Phone        *string          `gorm:"column:phone"`
	IsActive     bool             `gorm:"column:is_active;not null"`
	SystemRole   enums.SystemRole `gorm:"column:system_role;type:system_role;not null;default:user"`
	CoinBalance  int64            `gorm:"column:coin_balance;not null;default:0"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
