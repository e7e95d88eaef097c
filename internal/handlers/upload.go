package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/ediary-backend/internal/services"
)

const uploadTimeout = 30 * time.Second

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// UploadImage handles POST /api/upload with a multipart "file" field.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(w, r); !ok {
		return
	}
	if h.Images == nil {
		respondError(w, r, services.ErrImageStoreDisabled, "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(services.MaxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxImageBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	if len(data) > services.MaxImageBytes {
		writeError(w, http.StatusBadRequest, "File is too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "Only image uploads are supported")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	url, err := h.Images.Upload(ctx, data, contentType)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{Success: true, Message: "File uploaded successfully", URL: url})
}
