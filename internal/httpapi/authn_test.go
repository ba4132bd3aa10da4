package httpapi

import (
	"net/http"
	"testing"
)

func TestAuthnRejectsInvalidToken(t *testing.T) {
	api := newTestAPI(t, &stubStore{}, &stubAuditStore{})

	resp := api.do(http.MethodGet, "/api/admin/users", nil, bearerHeader("not-a-jwt"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "invalid token" {
		t.Fatalf("unexpected error %v", body["error"])
	}
}

func TestAuthnRejectsWrongScheme(t *testing.T) {
	api := newTestAPI(t, &stubStore{}, &stubAuditStore{})

	resp := api.do(http.MethodGet, "/api/admin/users", nil,
		map[string]string{"Authorization": "Basic dXNlcjpwYXNz"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestPublicPathsSkipAuthentication(t *testing.T) {
	api := newTestAPI(t, &stubStore{}, &stubAuditStore{})

	for _, path := range []string{"/healthz", "/readyz", "/v1/info", "/login"} {
		resp := api.do(http.MethodGet, path, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("path %s: expected 200, got %d", path, resp.StatusCode)
		}
		_ = resp.Body.Close()
	}
}

func TestExtractBearerToken(t *testing.T) {
	if _, err := extractBearerToken(""); err == nil {
		t.Fatal("expected error for empty header")
	}
	if _, err := extractBearerToken("Bearer "); err == nil {
		t.Fatal("expected error for empty token")
	}
	token, err := extractBearerToken("bearer abc.def.ghi")
	if err != nil {
		t.Fatalf("case-insensitive scheme should parse: %v", err)
	}
	if token != "abc.def.ghi" {
		t.Fatalf("unexpected token %q", token)
	}
}
