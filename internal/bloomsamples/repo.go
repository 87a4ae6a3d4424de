package bloomsamples

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/repo"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, sample *models.BloomSample) error {
	return r.base.DB(ctx).Create(sample).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BloomSample, error) {
	var sample models.BloomSample
	if err := r.base.DB(ctx).Take(&sample, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sample, nil
}

// List filters by bloom level when one is given.
func (r *Repository) List(ctx context.Context, level *enums.BloomLevel, activeOnly bool) ([]models.BloomSample, error) {
	var out []models.BloomSample
	q := r.base.DB(ctx).Order("bloom_level ASC").Order("created_at ASC")
	if level != nil {
		q = q.Where("bloom_level = ?", *level)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	return out, q.Find(&out).Error
}

// Examples returns active samples for the level; type-specific samples sort before untyped ones.
func (r *Repository) Examples(ctx context.Context, level enums.BloomLevel, qt enums.QuestionType, limit int) ([]models.BloomSample, error) {
	var out []models.BloomSample
	err := r.base.DB(ctx).
		Where("is_active = ? AND bloom_level = ?", true, level).
		Where("question_type IS NULL OR question_type = ?", qt).
		Order("CASE WHEN question_type IS NULL THEN 1 ELSE 0 END").
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, changes map[string]any) (bool, error) {
	changes["updated_at"] = time.Now().UTC()
	res := r.base.DB(ctx).Model(&models.BloomSample{}).Where("id = ?", id).Updates(changes)
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.base.DB(ctx).Where("id = ?", id).Delete(&models.BloomSample{})
	return res.RowsAffected == 1, res.Error
}
