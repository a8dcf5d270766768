package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"csr-collective/engage/internal/db/repositories"
	"csr-collective/engage/internal/services"
)

// ListUserEventParticipationsHandler handles
// GET /events/{eventId}/users/{userId}/activities?page=&pageSize=
func ListUserEventParticipationsHandler(svc *services.ParticipationQueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := strconv.Atoi(chi.URLParam(r, "eventId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid event id")
			return
		}
		userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

		views, err := svc.ListUserParticipationsInEvent(r.Context(), userID, eventID, page, pageSize)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}

		respondWithSuccess(w, http.StatusOK, &views)
	}
}

// GetLatestParticipationHandler handles
// GET /activities/{activityId}/participations/{userId}
func GetLatestParticipationHandler(svc *services.ParticipationQueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activityID, err := strconv.Atoi(chi.URLParam(r, "activityId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid activity id")
			return
		}
		userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		view, err := svc.LatestParticipation(r.Context(), userID, activityID)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		if view == nil {
			respondWithError(w, http.StatusNotFound, "No participation found")
			return
		}

		respondWithSuccess(w, http.StatusOK, view)
	}
}

// GetUserDetailsHandler handles GET /users/{userId}/details
func GetUserDetailsHandler(svc *services.ParticipationQueryService, users *repositories.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		if _, err := users.GetByID(r.Context(), userID); err != nil {
			respondWithDomainError(w, err)
			return
		}

		details, err := svc.UserDetails(r.Context(), userID)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}

		respondWithSuccess(w, http.StatusOK, details)
	}
}
