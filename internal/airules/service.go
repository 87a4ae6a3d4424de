package airules

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
	Name         string              `json:"name" validate:"required,max=120"`
	QuestionType *enums.QuestionType `json:"question_type,omitempty" validate:"omitempty,enum"`
	Instruction  string              `json:"instruction" validate:"required,max=4000"`
	Priority     int                 `json:"priority" validate:"min=0,max=1000"`
}

// UpdateRequest changes selected fields; ClearQuestionType makes the rule global.
type UpdateRequest struct {
	Name              *string             `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	QuestionType      *enums.QuestionType `json:"question_type,omitempty" validate:"omitempty,enum"`
	ClearQuestionType bool                `json:"clear_question_type,omitempty"`
	Instruction       *string             `json:"instruction,omitempty" validate:"omitempty,min=1,max=4000"`
	Priority          *int                `json:"priority,omitempty" validate:"omitempty,min=0,max=1000"`
	IsActive          *bool               `json:"is_active,omitempty"`
}

type RuleDTO struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	QuestionType *enums.QuestionType `json:"question_type,omitempty"`
	Instruction  string              `json:"instruction"`
	Priority     int                 `json:"priority"`
	IsActive     bool                `json:"is_active"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Service manages the admin-authored generation rules.
type Service interface {
	List(ctx context.Context, includeInactive bool) ([]RuleDTO, error)
	Create(ctx context.Context, req CreateRequest) (*RuleDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*RuleDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ActiveFor returns the instructions that apply to a question type in prompt order.
	ActiveFor(ctx context.Context, qt enums.QuestionType) ([]string, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("ai rules repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]RuleDTO, error) {
	rows, err := s.repo.List(ctx, !includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list ai rules")
	}
	out := make([]RuleDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*RuleDTO, error) {
	if err := checkType(req.QuestionType); err != nil {
		return nil, err
	}
	rule := &models.AIRule{
		Name:         strings.TrimSpace(req.Name),
		QuestionType: req.QuestionType,
		Instruction:  strings.TrimSpace(req.Instruction),
		Priority:     req.Priority,
		IsActive:     true,
	}
	if rule.Name == "" || rule.Instruction == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and instruction are required")
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create ai rule")
	}
	out := fromModel(*rule)
	return &out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*RuleDTO, error) {
	if err := checkType(req.QuestionType); err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if req.Name != nil {
		changes["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Instruction != nil {
		changes["instruction"] = strings.TrimSpace(*req.Instruction)
	}
	if req.Priority != nil {
		changes["priority"] = *req.Priority
	}
	if req.IsActive != nil {
		changes["is_active"] = *req.IsActive
	}
	switch {
	case req.ClearQuestionType:
		changes["question_type"] = nil
	case req.QuestionType != nil:
		changes["question_type"] = *req.QuestionType
	}
	for _, key := range []string{"name", "instruction"} {
		if v, ok := changes[key].(string); ok && v == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" cannot be empty")
		}
	}

	found, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update ai rule")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ai rule not found")
	}
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ai rule")
	}
	out := fromModel(*rule)
	return &out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete ai rule")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "ai rule not found")
	}
	return nil
}

func (s *service) ActiveFor(ctx context.Context, qt enums.QuestionType) ([]string, error) {
	rows, err := s.repo.ActiveFor(ctx, qt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ai rules")
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Instruction)
	}
	return out, nil
}

func checkType(qt *enums.QuestionType) error {
	if qt != nil && !qt.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInvalidEnum, "invalid question_type").
			WithDetails(map[string]any{"allowed": enums.QuestionTypes()})
	}
	return nil
}

func fromModel(r models.AIRule) RuleDTO {
	return RuleDTO{
		ID:           r.ID,
		Name:         r.Name,
		QuestionType: r.QuestionType,
		Instruction:  r.Instruction,
		Priority:     r.Priority,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
