package bloomsamples

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
)

type CreateRequest struct {
	BloomLevel   enums.BloomLevel    `json:"bloom_level" validate:"required,enum"`
	QuestionType *enums.QuestionType `json:"question_type,omitempty" validate:"omitempty,enum"`
	SampleText   string              `json:"sample_text" validate:"required,max=4000"`
}

type UpdateRequest struct {
	BloomLevel        *enums.BloomLevel   `json:"bloom_level,omitempty" validate:"omitempty,enum"`
	QuestionType      *enums.QuestionType `json:"question_type,omitempty" validate:"omitempty,enum"`
	ClearQuestionType bool                `json:"clear_question_type,omitempty"`
	SampleText        *string             `json:"sample_text,omitempty" validate:"omitempty,min=1,max=4000"`
	IsActive          *bool               `json:"is_active,omitempty"`
}

type SampleDTO struct {
	ID           uuid.UUID           `json:"id"`
	BloomLevel   enums.BloomLevel    `json:"bloom_level"`
	QuestionType *enums.QuestionType `json:"question_type,omitempty"`
	SampleText   string              `json:"sample_text"`
	IsActive     bool                `json:"is_active"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Service manages style examples per bloom level.
type Service interface {
	List(ctx context.Context, level *enums.BloomLevel, includeInactive bool) ([]SampleDTO, error)
	Create(ctx context.Context, req CreateRequest) (*SampleDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*SampleDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Examples(ctx context.Context, level enums.BloomLevel, qt enums.QuestionType, limit int) ([]string, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("bloom samples repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, level *enums.BloomLevel, includeInactive bool) ([]SampleDTO, error) {
	if level != nil && !level.IsValid() {
		return nil, invalidLevel()
	}
	rows, err := s.repo.List(ctx, level, !includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bloom samples")
	}
	out := make([]SampleDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*SampleDTO, error) {
	if !req.BloomLevel.IsValid() {
		return nil, invalidLevel()
	}
	if req.QuestionType != nil && !req.QuestionType.IsValid() {
		return nil, invalidType()
	}
	sample := &models.BloomSample{
		BloomLevel:   req.BloomLevel,
		QuestionType: req.QuestionType,
		SampleText:   strings.TrimSpace(req.SampleText),
		IsActive:     true,
	}
	if sample.SampleText == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sample_text is required")
	}
	if err := s.repo.Create(ctx, sample); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create bloom sample")
	}
	out := fromModel(*sample)
	return &out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*SampleDTO, error) {
	changes := map[string]any{}
	if req.BloomLevel != nil {
		if !req.BloomLevel.IsValid() {
			return nil, invalidLevel()
		}
		changes["bloom_level"] = *req.BloomLevel
	}
	switch {
	case req.ClearQuestionType:
		changes["question_type"] = nil
	case req.QuestionType != nil:
		if !req.QuestionType.IsValid() {
			return nil, invalidType()
		}
		changes["question_type"] = *req.QuestionType
	}
	if req.SampleText != nil {
		text := strings.TrimSpace(*req.SampleText)
		if text == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sample_text cannot be empty")
		}
		changes["sample_text"] = text
	}
	if req.IsActive != nil {
		changes["is_active"] = *req.IsActive
	}

	found, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update bloom sample")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bloom sample not found")
	}
	sample, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bloom sample")
	}
	out := fromModel(*sample)
	return &out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete bloom sample")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "bloom sample not found")
	}
	return nil
}

func (s *service) Examples(ctx context.Context, level enums.BloomLevel, qt enums.QuestionType, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.repo.Examples(ctx, level, qt, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bloom samples")
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.SampleText)
	}
	return out, nil
}

func invalidLevel() error {
	return pkgerrors.New(pkgerrors.CodeInvalidEnum, "invalid bloom_level").
		WithDetails(map[string]any{"allowed": enums.BloomLevels()})
}

func invalidType() error {
	return pkgerrors.New(pkgerrors.CodeInvalidEnum, "invalid question_type").
		WithDetails(map[string]any{"allowed": enums.QuestionTypes()})
}

func fromModel(m models.BloomSample) SampleDTO {
	return SampleDTO{
		ID:           m.ID,
		BloomLevel:   m.BloomLevel,
		QuestionType: m.QuestionType,
		SampleText:   m.SampleText,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
