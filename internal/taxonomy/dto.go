package taxonomy

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/db/models"
)

type CreateBoardRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Code        string `json:"code" validate:"required,max=32"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdateBoardRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Code        *string `json:"code,omitempty" validate:"omitempty,min=1,max=32"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type CreateSubjectRequest struct {
	BoardID uuid.UUID `json:"board_id" validate:"required"`
	Name    string    `json:"name" validate:"required,max=120"`
	Grade   int       `json:"grade" validate:"required,min=1,max=12"`
}

type UpdateSubjectRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Grade *int    `json:"grade,omitempty" validate:"omitempty,min=1,max=12"`
}

type CreateTopicRequest struct {
	SubjectID   uuid.UUID `json:"subject_id" validate:"required"`
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
}

type UpdateTopicRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type BoardDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SubjectDTO struct {
	ID        uuid.UUID `json:"id"`
	BoardID   uuid.UUID `json:"board_id"`
	Name      string    `json:"name"`
	Grade     int       `json:"grade"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TopicDTO struct {
	ID          uuid.UUID `json:"id"`
	SubjectID   uuid.UUID `json:"subject_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chain is a topic resolved together with its subject and board.
type Chain struct {
	Board   models.Board
	Subject models.Subject
	Topic   models.Topic
}

func BoardFromModel(b models.Board) BoardDTO {
	return BoardDTO{
		ID:          b.ID,
		Name:        b.Name,
		Code:        b.Code,
		Description: b.Description,
		IsActive:    b.IsActive,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func SubjectFromModel(s models.Subject) SubjectDTO {
	return SubjectDTO{
		ID:        s.ID,
		BoardID:   s.BoardID,
		Name:      s.Name,
		Grade:     s.Grade,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func TopicFromModel(t models.Topic) TopicDTO {
	return TopicDTO{
		ID:          t.ID,
		SubjectID:   t.SubjectID,
		Name:        t.Name,
		Description: t.Description,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func mapSlice[M any, D any](rows []M, fn func(M) D) []D {
	out := make([]D, 0, len(rows))
	for _, row := range rows {
		out = append(out, fn(row))
	}
	return out
}
