package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

const (
	msgDiaryNotFound        = "Diary entry not found"
	msgDiaryNotFoundInTrash = "Diary entry not found in trash"
)

type DiaryResponse struct {
	Message string      `json:"message"`
	Diary   diary.Entry `json:"diary"`
}

type EmptyTrashResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

func nonNil(entries []diary.Entry) []diary.Entry {
	if entries == nil {
		return []diary.Entry{}
	}
	return entries
}

// ListDiaries handles GET /api/diaries?q=.
func (h *Handler) ListDiaries(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	entries, err := h.Diaries.List(ctx, uid, r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, err, msgDiaryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

// ListTrash handles GET /api/diaries/trash.
func (h *Handler) ListTrash(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	entries, err := h.Diaries.Trash(ctx, uid)
	if err != nil {
		respondError(w, r, err, msgDiaryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

// EmptyTrash handles DELETE /api/diaries/trash.
func (h *Handler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	n, err := h.Diaries.EmptyTrash(ctx, uid)
	if err != nil {
		respondError(w, r, err, msgDiaryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, EmptyTrashResponse{Message: "Trash emptied", Deleted: n})
}

// CreateDiary handles POST /api/diaries.
func (h *Handler) CreateDiary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req diary.Draft
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	e, err := h.Diaries.Create(ctx, uid, req)
	if err != nil {
		var ve *diary.ValidationError
		if errors.As(err, &ve) && (ve.Field == "title" || ve.Field == "content") {
			writeError(w, http.StatusBadRequest, "Title and content are required")
			return
		}
		respondError(w, r, err, msgDiaryNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// GetDiary handles GET /api/diaries/{id}. Trashed entries are returned too.
func (h *Handler) GetDiary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	e, err := h.Diaries.Get(ctx, uid, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, msgDiaryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// UpdateDiary handles PUT /api/diaries/{id}.
func (h *Handler) UpdateDiary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var patch diary.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	e, err := h.Diaries.Update(ctx, uid, chi.URLParam(r, "id"), patch)
	if err != nil {
		respondError(w, r, err, msgDiaryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// TrashDiary handles DELETE /api/diaries/{id}.
func (h *Handler) TrashDiary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	e, err := h.Diaries.SoftDelete(ctx, uid, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, msgDiaryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, DiaryResponse{Message: "Diary entry moved to trash", Diary: e})
}

// RestoreDiary handles PUT /api/diaries/{id}/restore.
func (h *Handler) RestoreDiary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	e, err := h.Diaries.Restore(ctx, uid, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, msgDiaryNotFoundInTrash)
		return
	}
	writeJSON(w, http.StatusOK, DiaryResponse{Message: "Diary entry restored", Diary: e})
}

// PurgeDiary handles DELETE /api/diaries/{id}/permanent.
func (h *Handler) PurgeDiary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Diaries.Purge(ctx, uid, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, msgDiaryNotFoundInTrash)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Diary entry permanently deleted"})
}
