package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/middleware"
	"github.com/AnshRaj112/ediary-backend/internal/services"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

// Handler serves the REST API.
type Handler struct {
	Diaries *services.DiaryService
	Auth    *services.AuthService
	Tokens  *services.TokenService
	Hub     *services.Hub
	// Images is nil when uploads are disabled.
	Images services.ImageStore
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// statusFor maps the error taxonomy to an HTTP status and client message.
// notFound is the message used for diary.ErrNotFound.
func statusFor(err error, notFound string) (int, string) {
	var conflict *services.ConflictError
	switch {
	case diary.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &conflict):
		return http.StatusBadRequest, conflict.Message
	case errors.Is(err, diary.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, diary.ErrAuthRequired):
		return http.StatusUnauthorized, "Token is not valid"
	case errors.Is(err, diary.ErrNotFound):
		return http.StatusNotFound, notFound
	case errors.Is(err, services.ErrImageStoreDisabled):
		return http.StatusServiceUnavailable, "Image uploads are not available"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	status, message := statusFor(err, notFound)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, services.MaxImageBytes+1<<20))
	return dec.Decode(v)
}

// userID returns the authenticated user. Routes are mounted behind middleware.RequireAuth.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No authentication token, access denied")
	}
	return uid, ok
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}
