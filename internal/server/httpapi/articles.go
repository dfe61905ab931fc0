package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/mirrorapi"
)

// upsertArticle stores the document as sent. The mirror does not compare
// versions: the latest client write wins.
func (h *Handler) upsertArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var doc mirrorapi.Article
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

	if err := h.articles.Upsert(r.Context(), &doc); err != nil {
		h.logger.Error(r.Context(), "article upsert failed", "id", id, "cause", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	h.logger.Debug(r.Context(), "article stored", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.articles.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no such article")
			return
		}
		h.logger.Error(r.Context(), "article delete failed", "id", id, "cause", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	h.logger.Debug(r.Context(), "article deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listArticles(w http.ResponseWriter, r *http.Request) {
	after, limit, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.articles.List(r.Context(), after, limit)
	if err != nil {
		h.logger.Error(r.Context(), "article list failed", "cause", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	page := mirrorapi.ArticleList{Items: items}
	if len(items) == limit {
		page.NextAfter = items[len(items)-1].ID
	}
	writeJSON(w, http.StatusOK, page)
}

func pageParams(r *http.Request) (after string, limit int, err error) {
	after = r.URL.Query().Get("after")
	limit = defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return "", 0, errors.New("limit must be a positive integer")
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
	}
	return after, limit, nil
}
