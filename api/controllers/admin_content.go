package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/api/responses"
	"github.com/shiksha-labs/prashnagen/api/validators"
	"github.com/shiksha-labs/prashnagen/internal/airules"
	"github.com/shiksha-labs/prashnagen/internal/bloomsamples"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
)

type deleted struct {
	ID      uuid.UUID `json:"id"`
	Deleted bool      `json:"deleted"`
}

func ListAIRules(svc airules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ai rules"))
			return
		}
		all, err := includeInactive(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rules, err := svc.List(r.Context(), all)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rules)
	}
}

func CreateAIRule(svc airules.Service, logg *logger.Logger) http.HandlerFunc {
	return createHandler(logg, func(r *http.Request, req airules.CreateRequest) (*airules.RuleDTO, error) {
		return svc.Create(r.Context(), req)
	})
}

func UpdateAIRule(svc airules.Service, logg *logger.Logger) http.HandlerFunc {
	return updateHandler("ruleId", logg, func(r *http.Request, id uuid.UUID, req airules.UpdateRequest) (*airules.RuleDTO, error) {
		return svc.Update(r.Context(), id, req)
	})
}

func DeleteAIRule(svc airules.Service, logg *logger.Logger) http.HandlerFunc {
	return idHandler("ruleId", logg, func(r *http.Request, id uuid.UUID) (deleted, error) {
		if err := svc.Delete(r.Context(), id); err != nil {
			return deleted{}, err
		}
		return deleted{ID: id, Deleted: true}, nil
	})
}

// ListBloomSamples accepts an optional bloom_level filter.
func ListBloomSamples(svc bloomsamples.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bloom samples"))
			return
		}
		all, err := includeInactive(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var level *enums.BloomLevel
		if raw := validators.ParseQueryString(r, "bloom_level", 32); raw != nil {
			l := enums.BloomLevel(*raw)
			level = &l
		}
		samples, err := svc.List(r.Context(), level, all)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, samples)
	}
}

func CreateBloomSample(svc bloomsamples.Service, logg *logger.Logger) http.HandlerFunc {
	return createHandler(logg, func(r *http.Request, req bloomsamples.CreateRequest) (*bloomsamples.SampleDTO, error) {
		return svc.Create(r.Context(), req)
	})
}

func UpdateBloomSample(svc bloomsamples.Service, logg *logger.Logger) http.HandlerFunc {
	return updateHandler("sampleId", logg, func(r *http.Request, id uuid.UUID, req bloomsamples.UpdateRequest) (*bloomsamples.SampleDTO, error) {
		return svc.Update(r.Context(), id, req)
	})
}

func DeleteBloomSample(svc bloomsamples.Service, logg *logger.Logger) http.HandlerFunc {
	return idHandler("sampleId", logg, func(r *http.Request, id uuid.UUID) (deleted, error) {
		if err := svc.Delete(r.Context(), id); err != nil {
			return deleted{}, err
		}
		return deleted{ID: id, Deleted: true}, nil
	})
}
