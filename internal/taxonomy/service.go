package taxonomy

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
)

// Service manages the Board -> Subject -> Topic hierarchy.
type Service interface {
	ListBoards(ctx context.Context, includeInactive bool) ([]BoardDTO, error)
	ListSubjects(ctx context.Context, boardID uuid.UUID, includeInactive bool) ([]SubjectDTO, error)
	ListTopics(ctx context.Context, subjectID uuid.UUID, includeInactive bool) ([]TopicDTO, error)

	CreateBoard(ctx context.Context, req CreateBoardRequest) (*BoardDTO, error)
	UpdateBoard(ctx context.Context, id uuid.UUID, req UpdateBoardRequest) (*BoardDTO, error)
	SetBoardActive(ctx context.Context, id uuid.UUID, active bool) (*BoardDTO, error)

	CreateSubject(ctx context.Context, req CreateSubjectRequest) (*SubjectDTO, error)
	UpdateSubject(ctx context.Context, id uuid.UUID, req UpdateSubjectRequest) (*SubjectDTO, error)
	SetSubjectActive(ctx context.Context, id uuid.UUID, active bool) (*SubjectDTO, error)

	CreateTopic(ctx context.Context, req CreateTopicRequest) (*TopicDTO, error)
	UpdateTopic(ctx context.Context, id uuid.UUID, req UpdateTopicRequest) (*TopicDTO, error)
	SetTopicActive(ctx context.Context, id uuid.UUID, active bool) (*TopicDTO, error)

	// ResolveTopic returns the topic with its subject and board, all of which must be active.
	ResolveTopic(ctx context.Context, topicID uuid.UUID) (*Chain, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("taxonomy repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListBoards(ctx context.Context, includeInactive bool) ([]BoardDTO, error) {
	rows, err := s.repo.ListBoards(ctx, !includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list boards")
	}
	return mapSlice(rows, BoardFromModel), nil
}

func (s *service) ListSubjects(ctx context.Context, boardID uuid.UUID, includeInactive bool) ([]SubjectDTO, error) {
	board, err := s.repo.FindBoard(ctx, boardID)
	if err != nil {
		return nil, notFoundOr(err, "board not found", "load board")
	}
	if !board.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "board not found")
	}
	rows, err := s.repo.ListSubjects(ctx, boardID, !includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list subjects")
	}
	return mapSlice(rows, SubjectFromModel), nil
}

func (s *service) ListTopics(ctx context.Context, subjectID uuid.UUID, includeInactive bool) ([]TopicDTO, error) {
	subject, err := s.repo.FindSubject(ctx, subjectID)
	if err != nil {
		return nil, notFoundOr(err, "subject not found", "load subject")
	}
	if !subject.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subject not found")
	}
	rows, err := s.repo.ListTopics(ctx, subjectID, !includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list topics")
	}
	return mapSlice(rows, TopicFromModel), nil
}

func (s *service) CreateBoard(ctx context.Context, req CreateBoardRequest) (*BoardDTO, error) {
	board := &models.Board{
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	}
	if board.Name == "" || board.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and code are required")
	}
	if err := s.repo.CreateBoard(ctx, board); err != nil {
		return nil, writeErr(err, "board name already exists", "create board")
	}
	out := BoardFromModel(*board)
	return &out, nil
}

func (s *service) UpdateBoard(ctx context.Context, id uuid.UUID, req UpdateBoardRequest) (*BoardDTO, error) {
	changes := map[string]any{}
	if req.Name != nil {
		changes["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		changes["code"] = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.Description != nil {
		changes["description"] = strings.TrimSpace(*req.Description)
	}
	if err := s.update(ctx, &models.Board{}, id, changes, "board"); err != nil {
		return nil, err
	}
	return s.board(ctx, id)
}

func (s *service) SetBoardActive(ctx context.Context, id uuid.UUID, active bool) (*BoardDTO, error) {
	if err := s.setActive(ctx, &models.Board{}, id, active, "board"); err != nil {
		return nil, err
	}
	return s.board(ctx, id)
}

func (s *service) CreateSubject(ctx context.Context, req CreateSubjectRequest) (*SubjectDTO, error) {
	if err := s.requireActiveBoard(ctx, req.BoardID); err != nil {
		return nil, err
	}
	subject := &models.Subject{
		BoardID:  req.BoardID,
		Name:     strings.TrimSpace(req.Name),
		Grade:    req.Grade,
		IsActive: true,
	}
	if err := validateSubject(subject.Name, subject.Grade); err != nil {
		return nil, err
	}
	if err := s.repo.CreateSubject(ctx, subject); err != nil {
		return nil, writeErr(err, "subject already exists for this board and grade", "create subject")
	}
	out := SubjectFromModel(*subject)
	return &out, nil
}

func (s *service) UpdateSubject(ctx context.Context, id uuid.UUID, req UpdateSubjectRequest) (*SubjectDTO, error) {
	changes := map[string]any{}
	if req.Name != nil {
		changes["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Grade != nil {
		if *req.Grade < 1 || *req.Grade > 12 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "grade must be between 1 and 12")
		}
		changes["grade"] = *req.Grade
	}
	if err := s.update(ctx, &models.Subject{}, id, changes, "subject"); err != nil {
		return nil, err
	}
	return s.subject(ctx, id)
}

func (s *service) SetSubjectActive(ctx context.Context, id uuid.UUID, active bool) (*SubjectDTO, error) {
	if active {
		subject, err := s.repo.FindSubject(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "subject not found", "load subject")
		}
		if err := s.requireActiveBoard(ctx, subject.BoardID); err != nil {
			return nil, err
		}
	}
	if err := s.setActive(ctx, &models.Subject{}, id, active, "subject"); err != nil {
		return nil, err
	}
	return s.subject(ctx, id)
}

func (s *service) CreateTopic(ctx context.Context, req CreateTopicRequest) (*TopicDTO, error) {
	if err := s.requireActiveSubject(ctx, req.SubjectID); err != nil {
		return nil, err
	}
	topic := &models.Topic{
		SubjectID:   req.SubjectID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	}
	if topic.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := s.repo.CreateTopic(ctx, topic); err != nil {
		return nil, writeErr(err, "topic already exists for this subject", "create topic")
	}
	out := TopicFromModel(*topic)
	return &out, nil
}

func (s *service) UpdateTopic(ctx context.Context, id uuid.UUID, req UpdateTopicRequest) (*TopicDTO, error) {
	changes := map[string]any{}
	if req.Name != nil {
		changes["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		changes["description"] = strings.TrimSpace(*req.Description)
	}
	if err := s.update(ctx, &models.Topic{}, id, changes, "topic"); err != nil {
		return nil, err
	}
	return s.topic(ctx, id)
}

func (s *service) SetTopicActive(ctx context.Context, id uuid.UUID, active bool) (*TopicDTO, error) {
	if active {
		topic, err := s.repo.FindTopic(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "topic not found", "load topic")
		}
		if err := s.requireActiveSubject(ctx, topic.SubjectID); err != nil {
			return nil, err
		}
	}
	if err := s.setActive(ctx, &models.Topic{}, id, active, "topic"); err != nil {
		return nil, err
	}
	return s.topic(ctx, id)
}

func (s *service) ResolveTopic(ctx context.Context, topicID uuid.UUID) (*Chain, error) {
	if topicID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidReference, "topic_id is required")
	}
	chain, err := s.repo.ResolveChain(ctx, topicID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidReference, "topic does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve topic")
	}
	switch {
	case !chain.Topic.IsActive:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidReference, "topic is inactive")
	case !chain.Subject.IsActive:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidReference, "subject is inactive")
	case !chain.Board.IsActive:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidReference, "board is inactive")
	}
	return chain, nil
}

func (s *service) requireActiveBoard(ctx context.Context, id uuid.UUID) error {
	board, err := s.repo.FindBoard(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeInvalidReference, "board does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load board")
	}
	if !board.IsActive {
		return pkgerrors.New(pkgerrors.CodeInvalidReference, "board is inactive")
	}
	return nil
}

func (s *service) requireActiveSubject(ctx context.Context, id uuid.UUID) error {
	subject, err := s.repo.FindSubject(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeInvalidReference, "subject does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subject")
	}
	if !subject.IsActive {
		return pkgerrors.New(pkgerrors.CodeInvalidReference, "subject is inactive")
	}
	return s.requireActiveBoard(ctx, subject.BoardID)
}

func (s *service) update(ctx context.Context, model any, id uuid.UUID, changes map[string]any, kind string) error {
	if name, ok := changes["name"].(string); ok && name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}
	found, err := s.repo.Update(ctx, model, id, changes)
	if err != nil {
		return writeErr(err, kind+" already exists", "update "+kind)
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, kind+" not found")
	}
	return nil
}

func (s *service) setActive(ctx context.Context, model any, id uuid.UUID, active bool, kind string) error {
	found, err := s.repo.SetActive(ctx, model, id, active)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggle "+kind)
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, kind+" not found")
	}
	return nil
}

func (s *service) board(ctx context.Context, id uuid.UUID) (*BoardDTO, error) {
	row, err := s.repo.FindBoard(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "board not found", "load board")
	}
	out := BoardFromModel(*row)
	return &out, nil
}

func (s *service) subject(ctx context.Context, id uuid.UUID) (*SubjectDTO, error) {
	row, err := s.repo.FindSubject(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "subject not found", "load subject")
	}
	out := SubjectFromModel(*row)
	return &out, nil
}

func (s *service) topic(ctx context.Context, id uuid.UUID) (*TopicDTO, error) {
	row, err := s.repo.FindTopic(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "topic not found", "load topic")
	}
	out := TopicFromModel(*row)
	return &out, nil
}

func validateSubject(name string, grade int) error {
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if grade < 1 || grade > 12 {
		return pkgerrors.New(pkgerrors.CodeValidation, "grade must be between 1 and 12")
	}
	return nil
}

func notFoundOr(err error, notFound, op string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

func writeErr(err error, conflict, op string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, conflict)
	}
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.New(pkgerrors.CodeInvalidReference, "parent does not exist")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
