package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/mirrorapi"
)

func (h *Handler) upsertUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var doc mirrorapi.User
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if doc.ID == "" {
		doc.ID = id
	}
	if doc.ID != id {
		writeError(w, http.StatusBadRequest, "document id does not match URL")
		return
	}

	if err := h.users.Upsert(r.Context(), &doc); err != nil {
		h.logger.Error(r.Context(), "user upsert failed", "id", id, "cause", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	h.logger.Debug(r.Context(), "user stored", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.users.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no such user")
			return
		}
		h.logger.Error(r.Context(), "user delete failed", "id", id, "cause", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	h.logger.Debug(r.Context(), "user deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	after, limit, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.users.List(r.Context(), after, limit)
	if err != nil {
		h.logger.Error(r.Context(), "user list failed", "cause", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	page := mirrorapi.UserList{Items: items}
	if len(items) == limit {
		page.NextAfter = items[len(items)-1].ID
	}
	writeJSON(w, http.StatusOK, page)
}
