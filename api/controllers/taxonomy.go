package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/api/responses"
	"github.com/shiksha-labs/prashnagen/api/validators"
	"github.com/shiksha-labs/prashnagen/internal/taxonomy"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
)

// includeInactive is true on admin routes unless ?include_inactive=false is passed.
// Public listings never show retired entries.
func includeInactive(r *http.Request, admin bool) (bool, error) {
	if !admin {
		return false, nil
	}
	v, err := validators.ParseQueryBool(r, "include_inactive")
	if err != nil {
		return false, err
	}
	if v == nil {
		return true, nil
	}
	return *v, nil
}

func ListBoards(svc taxonomy.Service, admin bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("taxonomy"))
			return
		}
		all, err := includeInactive(r, admin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		boards, err := svc.ListBoards(r.Context(), all)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, boards)
	}
}

func ListSubjects(svc taxonomy.Service, admin bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("taxonomy"))
			return
		}
		boardID, err := validators.ParseUUIDParam(r, "boardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		all, err := includeInactive(r, admin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subjects, err := svc.ListSubjects(r.Context(), boardID, all)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subjects)
	}
}

func ListTopics(svc taxonomy.Service, admin bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("taxonomy"))
			return
		}
		subjectID, err := validators.ParseUUIDParam(r, "subjectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		all, err := includeInactive(r, admin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		topics, err := svc.ListTopics(r.Context(), subjectID, all)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, topics)
	}
}

// createHandler decodes a request body and answers 201 with the created entity.
func createHandler[Req any, Out any](logg *logger.Logger, create func(*http.Request, Req) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body Req
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := create(r, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// updateHandler resolves the path id, decodes the body and answers 200 with the updated entity.
func updateHandler[Req any, Out any](param string, logg *logger.Logger, update func(*http.Request, uuid.UUID, Req) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body Req
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := update(r, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// idHandler runs a body-less action against the entity named by the path id.
func idHandler[Out any](param string, logg *logger.Logger, action func(*http.Request, uuid.UUID) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := action(r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func CreateBoard(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return createHandler(logg, func(r *http.Request, req taxonomy.CreateBoardRequest) (*taxonomy.BoardDTO, error) {
		return svc.CreateBoard(r.Context(), req)
	})
}

func UpdateBoard(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return updateHandler("boardId", logg, func(r *http.Request, id uuid.UUID, req taxonomy.UpdateBoardRequest) (*taxonomy.BoardDTO, error) {
		return svc.UpdateBoard(r.Context(), id, req)
	})
}

func SetBoardActive(svc taxonomy.Service, active bool, logg *logger.Logger) http.HandlerFunc {
	return idHandler("boardId", logg, func(r *http.Request, id uuid.UUID) (*taxonomy.BoardDTO, error) {
		return svc.SetBoardActive(r.Context(), id, active)
	})
}

func CreateSubject(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return createHandler(logg, func(r *http.Request, req taxonomy.CreateSubjectRequest) (*taxonomy.SubjectDTO, error) {
		return svc.CreateSubject(r.Context(), req)
	})
}

func UpdateSubject(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return updateHandler("subjectId", logg, func(r *http.Request, id uuid.UUID, req taxonomy.UpdateSubjectRequest) (*taxonomy.SubjectDTO, error) {
		return svc.UpdateSubject(r.Context(), id, req)
	})
}

func SetSubjectActive(svc taxonomy.Service, active bool, logg *logger.Logger) http.HandlerFunc {
	return idHandler("subjectId", logg, func(r *http.Request, id uuid.UUID) (*taxonomy.SubjectDTO, error) {
		return svc.SetSubjectActive(r.Context(), id, active)
	})
}

func CreateTopic(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return createHandler(logg, func(r *http.Request, req taxonomy.CreateTopicRequest) (*taxonomy.TopicDTO, error) {
		return svc.CreateTopic(r.Context(), req)
	})
}

func UpdateTopic(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return updateHandler("topicId", logg, func(r *http.Request, id uuid.UUID, req taxonomy.UpdateTopicRequest) (*taxonomy.TopicDTO, error) {
		return svc.UpdateTopic(r.Context(), id, req)
	})
}

func SetTopicActive(svc taxonomy.Service, active bool, logg *logger.Logger) http.HandlerFunc {
	return idHandler("topicId", logg, func(r *http.Request, id uuid.UUID) (*taxonomy.TopicDTO, error) {
		return svc.SetTopicActive(r.Context(), id, active)
	})
}
