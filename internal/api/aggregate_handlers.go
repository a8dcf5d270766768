package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"csr-collective/engage/internal/db/repositories"
	"csr-collective/engage/internal/models/dtos/responses"
	"csr-collective/engage/internal/services"
)

// GetParticipantCountHandler handles GET /activities/{activityId}/participants
func GetParticipantCountHandler(svc *services.AggregationService, activities *repositories.ActivityRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activityID, err := strconv.Atoi(chi.URLParam(r, "activityId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid activity id")
			return
		}

		if _, err := activities.GetByID(r.Context(), activityID); err != nil {
			respondWithDomainError(w, err)
			return
		}

		count, err := svc.ParticipantCount(r.Context(), activityID)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}

		respondWithSuccess(w, http.StatusOK, &responses.ParticipationCount{
			ActivityID:        activityID,
			TotalParticipants: count,
		})
	}
}

// GetActivityAggregateHandler handles GET /activities/{activityId}/aggregate
func GetActivityAggregateHandler(svc *services.AggregationService, activities *repositories.ActivityRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activityID, err := strconv.Atoi(chi.URLParam(r, "activityId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid activity id")
			return
		}

		activity, err := activities.GetByID(r.Context(), activityID)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}

		agg, err := svc.ActivityAggregate(r.Context(), activity)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}

		respondWithSuccess(w, http.StatusOK, agg)
	}
}

// GetEventAggregateHandler handles GET /events/{eventId}/aggregate
func GetEventAggregateHandler(svc *services.AggregationService, events *repositories.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := strconv.Atoi(chi.URLParam(r, "eventId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid event id")
			return
		}

		if _, err := events.GetByID(r.Context(), eventID); err != nil {
			respondWithDomainError(w, err)
			return
		}

		agg, err := svc.EventAggregate(r.Context(), eventID)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}

		respondWithSuccess(w, http.StatusOK, agg)
	}
}
