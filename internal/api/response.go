package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"csr-collective/engage/internal/constants"
	"csr-collective/engage/internal/logging"
	"csr-collective/engage/internal/models/dtos/responses"
)

func respondWithSuccess[T any](w http.ResponseWriter, statusCode int, data *T) {
	resp := responses.APIResponse[T]{
		Status:    "success",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	resp := responses.APIResponse[any]{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// respondWithDomainError maps the domain error taxonomy onto HTTP status
// codes. Errors outside the taxonomy are reported opaquely with the detail
// logged server side only.
func respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, constants.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, constants.ErrAlreadyRegistered):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, constants.ErrNotRegistered),
		errors.Is(err, constants.ErrInvalidState),
		errors.Is(err, constants.ErrMissingField),
		errors.Is(err, constants.ErrInvalidAmount),
		errors.Is(err, constants.ErrUnsupportedTemplate):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, constants.ErrLedgerUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, constants.MsgLedgerUnavailable)
	case errors.Is(err, constants.ErrLedgerRejected):
		respondWithError(w, http.StatusBadGateway, err.Error())
	default:
		logging.Error("Unhandled error in request", "error", err.Error())
		respondWithError(w, http.StatusInternalServerError, constants.MsgInternalError)
	}
}
