package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/repo"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

// Repository exposes account persistence operations.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository that runs on the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

// Create inserts a new account with a zero balance.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.base.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the normalized email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.base.DB(ctx).Where("email = ?", NormalizeEmail(email)).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.base.DB(ctx).Take(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.base.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// SetActive flips is_active and reports whether the account exists.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

// List returns accounts newest first filtered by an email fragment and active flag.
func (r *Repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.User, error) {
	q := r.base.DB(ctx).Model(&models.User{})
	if term := strings.TrimSpace(strings.ToLower(filter.Search)); term != "" {
		q = q.Where("email LIKE ?", "%"+term+"%")
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Role != nil {
		q = q.Where("system_role = ?", *filter.Role)
	}
	var out []models.User
	if err := repo.Keyset(q, "", cursor, limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
