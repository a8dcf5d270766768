package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"csr-collective/engage/internal/metrics"
	"csr-collective/engage/internal/models/dtos"
	"csr-collective/engage/internal/models/dtos/responses"
	"csr-collective/engage/internal/services"
)

// SignupActivityHandler handles POST /activities/{activityId}/signup
func SignupActivityHandler(svc *services.ParticipationService, metricsReg *metrics.MetricsRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activityID, err := strconv.Atoi(chi.URLParam(r, "activityId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid activity id")
			return
		}

		var req dtos.SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := svc.SignUp(r.Context(), req.UserID, activityID); err != nil {
			respondWithDomainError(w, err)
			return
		}

		metricsReg.SignupsTotal.Inc()
		respondWithSuccess(w, http.StatusOK, &responses.Message{Message: "Signed up successfully"})
	}
}

// WithdrawActivityHandler handles POST /activities/{activityId}/withdraw
func WithdrawActivityHandler(svc *services.ParticipationService, metricsReg *metrics.MetricsRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activityID, err := strconv.Atoi(chi.URLParam(r, "activityId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid activity id")
			return
		}

		var req dtos.SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := svc.Withdraw(r.Context(), req.UserID, activityID); err != nil {
			respondWithDomainError(w, err)
			return
		}

		metricsReg.WithdrawalsTotal.Inc()
		respondWithSuccess(w, http.StatusOK, &responses.Message{Message: "Withdrawn successfully"})
	}
}

// UpdateDetailHandler handles PUT /activities/{activityId}/detail
func UpdateDetailHandler(svc *services.ParticipationService, metricsReg *metrics.MetricsRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activityID, err := strconv.Atoi(chi.URLParam(r, "activityId"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid activity id")
			return
		}

		var req dtos.DetailUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		templateID, err := svc.UpdateDetail(r.Context(), req.UserID, activityID, req.Detail)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}

		metricsReg.DetailUpdatesTotal.WithLabelValues(strconv.Itoa(templateID)).Inc()
		respondWithSuccess(w, http.StatusOK, &responses.Message{Message: "Detail updated successfully"})
	}
}

// VerifyParticipationHandler handles GET /activities/{activityId}/participations/{userId}/verify
func VerifyParticipationHandler(svc *services.ParticipationService) http.HandlerFunc {
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

		txID, valid, err := svc.VerifyLedgerTransaction(r.Context(), userID, activityID)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}

		respondWithSuccess(w, http.StatusOK, &responses.VerifyResponse{
			LedgerTxID: txID,
			Valid:      valid,
		})
	}
}
