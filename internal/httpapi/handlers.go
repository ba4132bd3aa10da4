package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"loopline.social/internal/auth"
	"loopline.social/internal/obs"
	"loopline.social/internal/profile"
)

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"status":  "ok",
		"service": "loopline-admin",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ok":     false,
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"name":    "loopline-admin",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// LoginPage is the redirect target of the admin pre-check for UI paths.
// Back-office pages are rendered by the web frontend; this is a plain
// placeholder for direct hits.
func (a *API) LoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Sign in to the Loopline back-office to continue.\n"))
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeOK wraps a payload in the {ok:true, ...} envelope.
func writeOK(w http.ResponseWriter, code int, payload map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, code, body)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"ok":    false,
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// writeAuthError translates a gate or guard failure. Only the typed
// authorization message is echoed; everything else is reported generically
// and logged server-side.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *auth.Error
	if errors.As(err, &ae) {
		if ae.Status == http.StatusInternalServerError {
			obs.LogError("role resolution failed", map[string]any{
				"path":       r.URL.Path,
				"request_id": RequestIDFromContext(r.Context()),
				"detail":     err.Error(),
			})
		}
		writeError(w, r, ae.Status, ae.Message)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "unexpected server error")
}

func handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, profile.ErrInvalidInput), errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		obs.LogError("store operation failed", map[string]any{
			"path":       r.URL.Path,
			"request_id": RequestIDFromContext(r.Context()),
			"detail":     err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "unexpected server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
