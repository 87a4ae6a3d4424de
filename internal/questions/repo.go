package questions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/repo"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

// CreateBatch inserts every question in one statement.
func (r *Repository) CreateBatch(ctx context.Context, rows []models.Question) error {
	if len(rows) == 0 {
		return nil
	}
	return r.base.DB(ctx).Create(&rows).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	var q models.Question
	if err := r.base.DB(ctx).Take(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *Repository) List(ctx context.Context, filter Filter, cursor *pagination.Cursor, limit int) ([]models.Question, error) {
	q := r.base.DB(ctx).Model(&models.Question{})
	if filter.OwnerUserID != nil {
		q = q.Where("owner_user_id = ?", *filter.OwnerUserID)
	}
	if filter.TopicID != nil {
		q = q.Where("topic_id = ?", *filter.TopicID)
	}
	if filter.QuestionType != nil {
		q = q.Where("question_type = ?", *filter.QuestionType)
	}
	if filter.BloomLevel != nil {
		q = q.Where("bloom_level = ?", *filter.BloomLevel)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.GenerationID != nil {
		q = q.Where("generation_id = ?", *filter.GenerationID)
	}
	var out []models.Question
	if err := repo.Keyset(q, "", cursor, limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus is the only mutation a question ever receives after insert.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.QuestionStatus) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

// CountByGeneration reports how many questions were committed for a generation.
func (r *Repository) CountByGeneration(ctx context.Context, generationID uuid.UUID) (int64, error) {
	var n int64
	err := r.base.DB(ctx).Model(&models.Question{}).Where("generation_id = ?", generationID).Count(&n).Error
	return n, err
}
