package httpapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"loopline.social/internal/audit"
	"loopline.social/internal/profile"
)

func profileWithRole(role string) func(ctx context.Context, userID string) (string, bool, error) {
	return func(_ context.Context, _ string) (string, bool, error) {
		return role, true, nil
	}
}

func TestAdminRouteRejectsAnonymous(t *testing.T) {
	store := &stubStore{}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodGet, "/api/admin/users", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
	if len(auditStore.records) != 0 {
		t.Fatalf("rejected request must not be audited, got %d records", len(auditStore.records))
	}
}

func TestModeratorCannotCallAdminOperation(t *testing.T) {
	store := &stubStore{profileRoleFn: profileWithRole("moderator")}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodPut, "/api/admin/users/user-c/role",
		map[string]any{"role": "admin"}, bearerHeader(api.token("mod-a")))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	if store.roleUpdateCalls != 0 {
		t.Fatal("store update must not run for a rejected request")
	}
	if len(auditStore.records) != 0 {
		t.Fatal("rejected request must not be audited")
	}
}

func TestRoleUpdateSuccessRecordsTransition(t *testing.T) {
	store := &stubStore{
		profileRoleFn: profileWithRole("ultra_admin"),
		getProfileFn: func(_ context.Context, userID string) (profile.Profile, error) {
			return profile.Profile{ID: userID, Role: "user"}, nil
		},
	}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodPut, "/api/admin/users/user-c/role",
		map[string]any{"role": "admin"}, bearerHeader(api.token("ultra-b")))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["ok"] != true {
		t.Fatalf("expected ok envelope, got %v", body)
	}

	if store.roleUpdateCalls != 1 {
		t.Fatalf("expected exactly one store update, got %d", store.roleUpdateCalls)
	}
	if len(auditStore.records) != 1 {
		t.Fatalf("expected exactly one audit record, got %d", len(auditStore.records))
	}
	rec := auditStore.records[0]
	if rec.Action != audit.ActionUserRoleUpdate {
		t.Fatalf("unexpected action %q", rec.Action)
	}
	if rec.ActorUserID != "ultra-b" || rec.TargetUserID != "user-c" {
		t.Fatalf("unexpected actor/target: %+v", rec)
	}
	if rec.Metadata["from_role"] != "user" || rec.Metadata["to_role"] != "admin" {
		t.Fatalf("expected from/to transition, got %v", rec.Metadata)
	}
}

func TestRoleUpdateRejectsSelfDemotion(t *testing.T) {
	store := &stubStore{profileRoleFn: profileWithRole("ultra_admin")}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodPut, "/api/admin/users/ultra-b/role",
		map[string]any{"role": "admin"}, bearerHeader(api.token("ultra-b")))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	if store.roleUpdateCalls != 0 {
		t.Fatal("self-demotion must be rejected before any mutation")
	}
	if len(auditStore.records) != 0 {
		t.Fatal("rejected request must not be audited")
	}
}

func TestRoleUpdateAllowsSelfWhenStayingUltraAdmin(t *testing.T) {
	store := &stubStore{
		profileRoleFn: profileWithRole("ultra_admin"),
		getProfileFn: func(_ context.Context, userID string) (profile.Profile, error) {
			return profile.Profile{ID: userID, Role: "ultra_admin"}, nil
		},
	}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodPut, "/api/admin/users/ultra-b/role",
		map[string]any{"role": "ultra_admin"}, bearerHeader(api.token("ultra-b")))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestRoleUpdateRejectsUnknownRoleValue(t *testing.T) {
	store := &stubStore{profileRoleFn: profileWithRole("ultra_admin")}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodPut, "/api/admin/users/user-c/role",
		map[string]any{"role": "superuser"}, bearerHeader(api.token("ultra-b")))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	if store.roleUpdateCalls != 0 || len(auditStore.records) != 0 {
		t.Fatal("unknown role must be rejected before mutation and auditing")
	}
}

func TestRoleLookupFailureSurfacesAsServerFault(t *testing.T) {
	store := &stubStore{
		profileRoleFn: func(_ context.Context, _ string) (string, bool, error) {
			return "", false, errors.New("connection refused")
		},
	}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodGet, "/api/admin/users", nil, bearerHeader(api.token("mod-a")))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "role resolution failed" {
		t.Fatalf("unexpected error message %v", body["error"])
	}
}

func TestBanRecordsDurationMetadata(t *testing.T) {
	store := &stubStore{profileRoleFn: profileWithRole("admin")}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodPost, "/api/admin/users/user-z/ban",
		map[string]any{"reason": "spam", "duration_hours": 48}, bearerHeader(api.token("admin-a")))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	if store.banCalls != 1 || len(auditStore.records) != 1 {
		t.Fatalf("expected one ban and one audit record, got %d/%d", store.banCalls, len(auditStore.records))
	}
	rec := auditStore.records[0]
	if rec.Action != audit.ActionUserBan || rec.Metadata["duration_hours"] != "48" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestWarningCreateRequiresReason(t *testing.T) {
	store := &stubStore{profileRoleFn: profileWithRole("moderator")}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodPost, "/api/admin/users/user-z/warnings",
		map[string]any{"reason": "  "}, bearerHeader(api.token("mod-a")))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
	if len(auditStore.records) != 0 {
		t.Fatal("validation failure must not be audited")
	}
}

func TestListingRemovalIsAudited(t *testing.T) {
	store := &stubStore{profileRoleFn: profileWithRole("moderator")}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodDelete, "/api/admin/listings/listing-7?reason=prohibited+item",
		nil, bearerHeader(api.token("mod-a")))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	if len(auditStore.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(auditStore.records))
	}
	rec := auditStore.records[0]
	if rec.Action != audit.ActionListingRemove || rec.EntityType != "listing" || rec.EntityID != "listing-7" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Metadata["reason"] != "prohibited item" {
		t.Fatalf("reason not captured: %v", rec.Metadata)
	}
}

func TestWarningDeleteNotFoundProducesNoAudit(t *testing.T) {
	store := &stubStore{
		profileRoleFn: profileWithRole("admin"),
		deleteWarningFn: func(_ context.Context, _ string) error {
			return profile.ErrNotFound
		},
	}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodDelete, "/api/admin/warnings/missing", nil, bearerHeader(api.token("admin-a")))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
	if len(auditStore.records) != 0 {
		t.Fatal("failed operation must not be audited")
	}
}

func TestAuditWriteFailureSurfacesAfterAction(t *testing.T) {
	store := &stubStore{profileRoleFn: profileWithRole("admin")}
	auditStore := &stubAuditStore{appendErr: errors.New("insert failed")}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodDelete, "/api/admin/users/user-z/ban", nil, bearerHeader(api.token("admin-a")))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "action applied but audit record failed" {
		t.Fatalf("unexpected error message %v", body["error"])
	}
}

func TestAuditLogListingRequiresAdmin(t *testing.T) {
	store := &stubStore{profileRoleFn: profileWithRole("moderator")}
	auditStore := &stubAuditStore{}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodGet, "/api/admin/audit", nil, bearerHeader(api.token("mod-a")))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestAuditLogListingIsItselfAudited(t *testing.T) {
	store := &stubStore{profileRoleFn: profileWithRole("admin")}
	auditStore := &stubAuditStore{
		records: []audit.Record{{ID: "rec-1", Action: audit.ActionUserBan, ActorUserID: "admin-a"}},
	}
	api := newTestAPI(t, store, auditStore)

	resp := api.do(http.MethodGet, "/api/admin/audit?limit=10", nil, bearerHeader(api.token("admin-a")))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	last := auditStore.records[len(auditStore.records)-1]
	if last.Action != audit.ActionAuditView {
		t.Fatalf("expected view action to be recorded, got %q", last.Action)
	}
}
