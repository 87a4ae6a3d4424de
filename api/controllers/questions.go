package controllers

import (
	"net/http"

	"github.com/shiksha-labs/prashnagen/api/responses"
	"github.com/shiksha-labs/prashnagen/api/validators"
	"github.com/shiksha-labs/prashnagen/internal/questions"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

// ListQuestions returns the caller's own questions.
func ListQuestions(svc questions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("questions"))
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, params, err := questionQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListOwn(r.Context(), userID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetQuestion(svc questions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("questions"))
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		questionID, err := validators.ParseUUIDParam(r, "questionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		question, err := svc.GetOwn(r.Context(), userID, questionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, question)
	}
}

// AdminListQuestions lists questions across owners; owner_id narrows to one account.
func AdminListQuestions(svc questions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("questions"))
			return
		}
		filter, params, err := questionQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		owner, err := validators.ParseQueryUUID(r, "owner_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.OwnerUserID = owner
		page, err := svc.AdminList(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminReviewQuestion approves or rejects a generated question.
func AdminReviewQuestion(svc questions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("questions"))
			return
		}
		questionID, err := validators.ParseUUIDParam(r, "questionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body questions.ReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		question, err := svc.Review(r.Context(), questionID, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, question)
	}
}

func questionQuery(r *http.Request) (questions.Filter, pagination.Params, error) {
	var filter questions.Filter
	params, err := validators.ParsePagination(r)
	if err != nil {
		return filter, params, err
	}
	if filter.TopicID, err = validators.ParseQueryUUID(r, "topic_id"); err != nil {
		return filter, params, err
	}
	if filter.GenerationID, err = validators.ParseQueryUUID(r, "generation_id"); err != nil {
		return filter, params, err
	}
	if v := validators.ParseQueryString(r, "question_type", 64); v != nil {
		qt := enums.QuestionType(*v)
		filter.QuestionType = &qt
	}
	if v := validators.ParseQueryString(r, "bloom_level", 64); v != nil {
		level := enums.BloomLevel(*v)
		filter.BloomLevel = &level
	}
	if v := validators.ParseQueryString(r, "status", 64); v != nil {
		status := enums.QuestionStatus(*v)
		filter.Status = &status
	}
	return filter, params, nil
}
