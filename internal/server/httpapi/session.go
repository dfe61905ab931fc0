package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/nexuzy/artsync/internal/mirrorapi"
	"github.com/nexuzy/artsync/internal/server/auth"
)

// openSession exchanges the configured access keys for a session token.
func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	var req mirrorapi.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	keyOK := subtle.ConstantTimeCompare([]byte(req.AccessKey), []byte(h.accessKey)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(req.SecretKey), []byte(h.accessSecret)) == 1
	if !keyOK || !secretOK {
		h.logger.Warn(r.Context(), "session rejected", "access_key", req.AccessKey)
		writeError(w, http.StatusUnauthorized, "invalid access keys")
		return
	}

	token, err := auth.GenerateToken(req.AccessKey, h.jwtSecret, h.tokenValidity)
	if err != nil {
		h.logger.Error(r.Context(), "token generation failed", "cause", err)
		writeError(w, http.StatusInternalServerError, "could not open session")
		return
	}

	writeJSON(w, http.StatusOK, mirrorapi.SessionResponse{Token: token})
}
