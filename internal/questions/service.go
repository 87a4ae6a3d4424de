package questions

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

// Service exposes the question library to owners and reviewers.
type Service interface {
	ListOwn(ctx context.Context, ownerID uuid.UUID, filter Filter, params pagination.Params) (pagination.Page[QuestionDTO], error)
	GetOwn(ctx context.Context, ownerID, questionID uuid.UUID) (*QuestionDTO, error)
	AdminList(ctx context.Context, filter Filter, params pagination.Params) (pagination.Page[QuestionDTO], error)
	Review(ctx context.Context, questionID uuid.UUID, status enums.QuestionStatus) (*QuestionDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("questions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListOwn(ctx context.Context, ownerID uuid.UUID, filter Filter, params pagination.Params) (pagination.Page[QuestionDTO], error) {
	if ownerID == uuid.Nil {
		return pagination.Page[QuestionDTO]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	filter.OwnerUserID = &ownerID
	return s.list(ctx, filter, params)
}

func (s *service) GetOwn(ctx context.Context, ownerID, questionID uuid.UUID) (*QuestionDTO, error) {
	q, err := s.repo.FindByID(ctx, questionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load question")
	}
	// other owners' questions are indistinguishable from missing ones
	if q.OwnerUserID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
	}
	out := FromModel(*q)
	return &out, nil
}

func (s *service) AdminList(ctx context.Context, filter Filter, params pagination.Params) (pagination.Page[QuestionDTO], error) {
	return s.list(ctx, filter, params)
}

func (s *service) Review(ctx context.Context, questionID uuid.UUID, status enums.QuestionStatus) (*QuestionDTO, error) {
	if !status.IsReviewDecision() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidEnum, "status must be approved or rejected")
	}
	found, err := s.repo.UpdateStatus(ctx, questionID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update question status")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
	}
	q, err := s.repo.FindByID(ctx, questionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load question")
	}
	out := FromModel(*q)
	return &out, nil
}

func (s *service) list(ctx context.Context, filter Filter, params pagination.Params) (pagination.Page[QuestionDTO], error) {
	if err := validateFilter(filter); err != nil {
		return pagination.Page[QuestionDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[QuestionDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filter, cursor, params.Limit)
	if err != nil {
		return pagination.Page[QuestionDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list questions")
	}
	page := pagination.BuildPage(rows, params.Limit, func(q models.Question) pagination.Cursor {
		return pagination.Cursor{CreatedAt: q.CreatedAt, ID: q.ID}
	})
	return pagination.Page[QuestionDTO]{Items: FromModels(page.Items), NextCursor: page.NextCursor}, nil
}

func validateFilter(f Filter) error {
	if f.QuestionType != nil && !f.QuestionType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInvalidEnum, "invalid question_type")
	}
	if f.BloomLevel != nil && !f.BloomLevel.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInvalidEnum, "invalid bloom_level")
	}
	if f.Status != nil && !f.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInvalidEnum, "invalid status")
	}
	return nil
}
