package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loopline.social/internal/audit"
	"loopline.social/internal/auth"
	"loopline.social/internal/profile"
)

// stubStore implements profile.Store and auth.ProfileStore with function
// fields so each test overrides only what it needs.
type stubStore struct {
	profileRoleFn    func(ctx context.Context, userID string) (string, bool, error)
	listProfilesFn   func(ctx context.Context, limit int) ([]profile.Profile, error)
	getProfileFn     func(ctx context.Context, userID string) (profile.Profile, error)
	updateRoleFn     func(ctx context.Context, userID, role string) error
	passwordHashFn   func(ctx context.Context, userID string) (string, error)
	banFn            func(ctx context.Context, userID, reason string, d time.Duration) error
	unbanFn          func(ctx context.Context, userID string) error
	createWarningFn  func(ctx context.Context, w *profile.Warning) error
	deleteWarningFn  func(ctx context.Context, warningID string) error
	removeListingFn  func(ctx context.Context, id string) error
	removePostFn     func(ctx context.Context, id string) error
	removeEventFn    func(ctx context.Context, id string) error
	roleUpdateCalls  int
	banCalls         int
}

func (s *stubStore) ProfileRole(ctx context.Context, userID string) (string, bool, error) {
	if s.profileRoleFn != nil {
		return s.profileRoleFn(ctx, userID)
	}
	return "", false, nil
}

func (s *stubStore) ListProfiles(ctx context.Context, limit int) ([]profile.Profile, error) {
	if s.listProfilesFn != nil {
		return s.listProfilesFn(ctx, limit)
	}
	return nil, nil
}

func (s *stubStore) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	if s.getProfileFn != nil {
		return s.getProfileFn(ctx, userID)
	}
	return profile.Profile{ID: userID}, nil
}

func (s *stubStore) UpdateProfileRole(ctx context.Context, userID, role string) error {
	s.roleUpdateCalls++
	if s.updateRoleFn != nil {
		return s.updateRoleFn(ctx, userID, role)
	}
	return nil
}

func (s *stubStore) PasswordHash(ctx context.Context, userID string) (string, error) {
	if s.passwordHashFn != nil {
		return s.passwordHashFn(ctx, userID)
	}
	return "", profile.ErrNotFound
}

func (s *stubStore) BanUser(ctx context.Context, userID, reason string, d time.Duration) error {
	s.banCalls++
	if s.banFn != nil {
		return s.banFn(ctx, userID, reason, d)
	}
	return nil
}

func (s *stubStore) UnbanUser(ctx context.Context, userID string) error {
	if s.unbanFn != nil {
		return s.unbanFn(ctx, userID)
	}
	return nil
}

func (s *stubStore) CreateWarning(ctx context.Context, w *profile.Warning) error {
	if s.createWarningFn != nil {
		return s.createWarningFn(ctx, w)
	}
	w.ID = "warn-1"
	w.CreatedAt = time.Now().UTC()
	return nil
}

func (s *stubStore) DeleteWarning(ctx context.Context, warningID string) error {
	if s.deleteWarningFn != nil {
		return s.deleteWarningFn(ctx, warningID)
	}
	return nil
}

func (s *stubStore) RemoveListing(ctx context.Context, id string) error {
	if s.removeListingFn != nil {
		return s.removeListingFn(ctx, id)
	}
	return nil
}

func (s *stubStore) RemovePost(ctx context.Context, id string) error {
	if s.removePostFn != nil {
		return s.removePostFn(ctx, id)
	}
	return nil
}

func (s *stubStore) RemoveEvent(ctx context.Context, id string) error {
	if s.removeEventFn != nil {
		return s.removeEventFn(ctx, id)
	}
	return nil
}

type stubAuditStore struct {
	records   []audit.Record
	appendErr error
	listFn    func(ctx context.Context, q audit.Query) ([]audit.Record, error)
}

func (s *stubAuditStore) Append(_ context.Context, rec *audit.Record) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	rec.CreatedAt = time.Now().UTC()
	s.records = append(s.records, *rec)
	return nil
}

func (s *stubAuditStore) List(ctx context.Context, q audit.Query) ([]audit.Record, error) {
	if s.listFn != nil {
		return s.listFn(ctx, q)
	}
	out := make([]audit.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T, store *stubStore, auditStore *stubAuditStore) *apiClient {
	t.Helper()

	t.Setenv("LOOPLINE_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	api := New(Options{
		Version:  "test",
		Roles:    store,
		Profiles: store,
		Audit:    auditStore,
	})
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{baseURL: srv.URL, client: srv.Client(), t: t}
}

func (c *apiClient) token(userID string) string {
	c.t.Helper()
	token, err := auth.GenerateToken(userID, "", "", 15*time.Minute)
	if err != nil {
		c.t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func bearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}
