package taxonomy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/repo"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
)

// Repository persists boards, subjects and topics.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) CreateBoard(ctx context.Context, board *models.Board) error {
	return r.base.DB(ctx).Create(board).Error
}

func (r *Repository) CreateSubject(ctx context.Context, subject *models.Subject) error {
	return r.base.DB(ctx).Create(subject).Error
}

func (r *Repository) CreateTopic(ctx context.Context, topic *models.Topic) error {
	return r.base.DB(ctx).Create(topic).Error
}

func (r *Repository) FindBoard(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	var board models.Board
	if err := r.base.DB(ctx).Take(&board, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *Repository) FindSubject(ctx context.Context, id uuid.UUID) (*models.Subject, error) {
	var subject models.Subject
	if err := r.base.DB(ctx).Take(&subject, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *Repository) FindTopic(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	var topic models.Topic
	if err := r.base.DB(ctx).Take(&topic, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *Repository) ListBoards(ctx context.Context, activeOnly bool) ([]models.Board, error) {
	var out []models.Board
	q := r.base.DB(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	return out, q.Find(&out).Error
}

func (r *Repository) ListSubjects(ctx context.Context, boardID uuid.UUID, activeOnly bool) ([]models.Subject, error) {
	var out []models.Subject
	q := r.base.DB(ctx).Where("board_id = ?", boardID).Order("grade ASC").Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	return out, q.Find(&out).Error
}

func (r *Repository) ListTopics(ctx context.Context, subjectID uuid.UUID, activeOnly bool) ([]models.Topic, error) {
	var out []models.Topic
	q := r.base.DB(ctx).Where("subject_id = ?", subjectID).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	return out, q.Find(&out).Error
}

// Update applies column changes to one row of the model's table and reports whether it exists.
func (r *Repository) Update(ctx context.Context, model any, id uuid.UUID, changes map[string]any) (bool, error) {
	if len(changes) == 0 {
		var count int64
		err := r.base.DB(ctx).Model(model).Where("id = ?", id).Count(&count).Error
		return count == 1, err
	}
	changes["updated_at"] = time.Now().UTC()
	res := r.base.DB(ctx).Model(model).Where("id = ?", id).Updates(changes)
	return res.RowsAffected == 1, res.Error
}

// SetActive soft-deletes or restores one row.
func (r *Repository) SetActive(ctx context.Context, model any, id uuid.UUID, active bool) (bool, error) {
	return r.Update(ctx, model, id, map[string]any{"is_active": active})
}

// ResolveChain loads a topic and its ancestors in one query.
func (r *Repository) ResolveChain(ctx context.Context, topicID uuid.UUID) (*Chain, error) {
	var row struct {
		TopicID          uuid.UUID
		TopicName        string
		TopicDescription string
		TopicActive      bool
		SubjectID        uuid.UUID
		SubjectName      string
		SubjectGrade     int
		SubjectActive    bool
		BoardID          uuid.UUID
		BoardName        string
		BoardCode        string
		BoardActive      bool
	}
	res := r.base.DB(ctx).
		Table("topics t").
		Select(`t.id AS topic_id, t.name AS topic_name, t.description AS topic_description, t.is_active AS topic_active,
			s.id AS subject_id, s.name AS subject_name, s.grade AS subject_grade, s.is_active AS subject_active,
			b.id AS board_id, b.name AS board_name, b.code AS board_code, b.is_active AS board_active`).
		Joins("JOIN subjects s ON s.id = t.subject_id").
		Joins("JOIN boards b ON b.id = s.board_id").
		Where("t.id = ?", topicID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &Chain{
		Board:   models.Board{ID: row.BoardID, Name: row.BoardName, Code: row.BoardCode, IsActive: row.BoardActive},
		Subject: models.Subject{ID: row.SubjectID, BoardID: row.BoardID, Name: row.SubjectName, Grade: row.SubjectGrade, IsActive: row.SubjectActive},
		Topic:   models.Topic{ID: row.TopicID, SubjectID: row.SubjectID, Name: row.TopicName, Description: row.TopicDescription, IsActive: row.TopicActive},
	}, nil
}
