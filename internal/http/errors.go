package http

import (
	"errors"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("malformed request")

// classify maps an error to a status, a user-facing message and an error
// type for the log.
func classify(err error) (int, string, string) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Error(), log.ErrorTypeValidation
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error(), log.ErrorTypeValidation
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, auth.ErrInvalidCredentials.Error(), log.ErrorTypeAuth
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, "Your session has expired. Please sign in again.", log.ErrorTypeAuth
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, auth.ErrEmailTaken.Error(), log.ErrorTypeConflict
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "The record was changed by someone else.", log.ErrorTypeConflict
	case errors.Is(err, services.ErrSessionChanged):
		return http.StatusConflict, "Your session changed while loading. Please retry.", log.ErrorTypeConflict
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Not found.", log.ErrorTypeNotFound
	case errors.Is(err, services.ErrRemoteWrite):
		return http.StatusBadGateway, "Could not save your changes. Please try again.", log.ErrorTypeDatabase
	default:
		return http.StatusInternalServerError, "Something went wrong.", log.ErrorTypeInternal
	}
}

// writeError logs err and writes its envelope. Client errors log at warn.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg, errType := classify(err)
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
	fields := log.NewFields().WithOperation(op).WithError(err).WithErrorType(errType).ToSlice()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields...)
	}
	ErrorResponse(status, msg).Write(w)
}
