package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/ediary-backend/internal/middleware"
	"github.com/AnshRaj112/ediary-backend/internal/models"
	"github.com/AnshRaj112/ediary-backend/internal/services"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ProfileResponse struct {
	Message string      `json:"message,omitempty"`
	User    models.User `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.Register(ctx, req)
	if err != nil {
		respondError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Login handles POST /api/auth/login. The username field also accepts an email.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		respondError(w, r, err, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// UpdateProfile handles PUT /api/auth/update-profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req models.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.Auth.UpdateProfile(ctx, uid, req)
	if err != nil {
		respondError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Message: "Profile updated successfully", User: user})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.Auth.Me(ctx, uid)
	if err != nil {
		respondError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{User: user})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, middleware.ClaimsFrom(r.Context())); err != nil {
		respondError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}
