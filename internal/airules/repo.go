package airules

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

func (r *Repository) Create(ctx context.Context, rule *models.AIRule) error {
	return r.base.DB(ctx).Create(rule).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AIRule, error) {
	var rule models.AIRule
	if err := r.base.DB(ctx).Take(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// List returns rules ordered by priority (highest first) then name.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.AIRule, error) {
	var out []models.AIRule
	q := r.base.DB(ctx).Order("priority DESC").Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	return out, q.Find(&out).Error
}

// ActiveFor returns active global rules together with those scoped to qt.
func (r *Repository) ActiveFor(ctx context.Context, qt enums.QuestionType) ([]models.AIRule, error) {
	var out []models.AIRule
	err := r.base.DB(ctx).
		Where("is_active = ?", true).
		Where("question_type IS NULL OR question_type = ?", qt).
		Order("priority DESC").
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, changes map[string]any) (bool, error) {
	changes["updated_at"] = time.Now().UTC()
	res := r.base.DB(ctx).Model(&models.AIRule{}).Where("id = ?", id).Updates(changes)
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.base.DB(ctx).Where("id = ?", id).Delete(&models.AIRule{})
	return res.RowsAffected == 1, res.Error
}
