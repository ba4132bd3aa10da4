package httpapi

import (
	"net/http"
	"strings"
)

// Admin prefixes guarded by the edge pre-check.
const (
	adminPagePrefix = "/admin/"
	adminAPIPrefix  = "/api/admin/"
)

var staticAssetPrefixes = []string{
	"/assets/",
	"/static/",
	"/favicon.ico",
}

// Session cookie names the hosted identity provider may set. Presence is all
// that is checked here; the token is never decoded at the edge.
var sessionCookiePrefixes = []string{
	"sb-",
	"loopline-session",
}

// AdminPreCheck is a fast, side-effect-free filter applied before any route
// logic. It only verifies that some session artifact accompanies requests to
// admin-prefixed paths; role verification is deferred to the gate. This is
// an optimization, never the enforcement point.
func AdminPreCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if isStaticAsset(path) || !isAdminPath(path) {
			next.ServeHTTP(w, r)
			return
		}
		if hasSessionArtifact(r) {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(path, adminAPIPrefix) {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

func isAdminPath(path string) bool {
	return strings.HasPrefix(path, adminPagePrefix) || strings.HasPrefix(path, adminAPIPrefix)
}

func isStaticAsset(path string) bool {
	for _, prefix := range staticAssetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func hasSessionArtifact(r *http.Request) bool {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		return true
	}
	for _, c := range r.Cookies() {
		for _, prefix := range sessionCookiePrefixes {
			if strings.HasPrefix(c.Name, prefix) && c.Value != "" {
				return true
			}
		}
	}
	return false
}
