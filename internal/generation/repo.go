package generation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/repo"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

// Repository persists generation_requests rows.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

func (r *Repository) Create(ctx context.Context, req *models.GenerationRequest) error {
	return r.base.DB(ctx).Create(req).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GenerationRequest, error) {
	var req models.GenerationRequest
	if err := r.base.DB(ctx).Take(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.GenerationRequest, error) {
	q := r.base.DB(ctx).Model(&models.GenerationRequest{}).Where("user_id = ?", userID)
	var out []models.GenerationRequest
	if err := repo.Keyset(q, "", cursor, limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
