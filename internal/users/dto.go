package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID        `json:"id"`
	Email       string           `json:"email"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	Phone       *string          `json:"phone,omitempty"`
	IsActive    bool             `json:"is_active"`
	SystemRole  enums.SystemRole `json:"system_role"`
	CoinBalance int64            `json:"coin_balance"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	SystemRole   enums.SystemRole
}

// ListFilter narrows the admin account listing.
type ListFilter struct {
	Search   string
	IsActive *bool
	Role     *enums.SystemRole
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		IsActive:    u.IsActive,
		SystemRole:  u.SystemRole,
		CoinBalance: u.CoinBalance,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ToModel builds an active account; the balance always starts at zero and
// only moves through the ledger.
func (c CreateUserDTO) ToModel() *models.User {
	role := c.SystemRole
	if role == "" {
		role = enums.SystemRoleUser
	}
	return &models.User{
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Phone:        c.Phone,
		IsActive:     true,
		SystemRole:   role,
	}
}
