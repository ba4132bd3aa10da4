package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"loopline.social/internal/auth"
	"loopline.social/internal/profile"
)

type tokenRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type tokenResponse struct {
	OK        bool      `json:"ok"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

const tokenTTL = 15 * time.Minute

// handleAuthToken issues a session JWT for a local back-office account.
// Tokens minted here carry no metadata role hints; the profile row is the
// authoritative role source. Provider-issued tokens may carry hints and are
// accepted by the same validation path.
func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "user_id and password are required")
		return
	}

	hash, err := a.profiles.PasswordHash(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		handleStoreError(w, r, err)
		return
	}
	if err := auth.VerifyPassword(hash, req.Password); err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(req.UserID, "", "", tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		OK:        true,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(tokenTTL),
	})
}
