package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"loopline.social/internal/audit"
	"loopline.social/internal/auth"
	"loopline.social/internal/obs"
	"loopline.social/internal/profile"
)

type updateRoleRequest struct {
	Role string `json:"role"`
}

type banRequest struct {
	Reason        string `json:"reason"`
	DurationHours int    `json:"duration_hours"`
}

type warningRequest struct {
	Reason string `json:"reason"`
}

// audit records the single entry for a completed privileged action. Actor
// and provenance are filled in here so route code only states what happened.
// An insert failure is surfaced as a server fault even though the action
// itself already applied; a dropped audit record must never pass silently.
func (a *API) audit(w http.ResponseWriter, r *http.Request, actor auth.Context, e audit.Entry) bool {
	e.ActorUserID = actor.Identity.ID
	e.IP, e.UserAgent = audit.Provenance(r)
	if err := a.recorder.Record(r.Context(), e); err != nil {
		obs.ObserveAuditWrite("error")
		obs.LogError("audit write failed after action applied", map[string]any{
			"action":     e.Action,
			"request_id": RequestIDFromContext(r.Context()),
			"detail":     err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "action applied but audit record failed")
		return false
	}
	obs.ObserveAuditWrite("ok")
	return true
}

// handleUsers lists member profiles for the moderation overview.
func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	authz, err := a.gate.RequireModerator(r.Context())
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	users, err := a.profiles.ListProfiles(r.Context(), limit)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if !a.audit(w, r, authz, audit.Entry{
		Action:     audit.ActionUserListView,
		EntityType: "user",
		Metadata:   map[string]string{"count": strconv.Itoa(len(users))},
	}) {
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"users": users})
}

// handleUserScoped routes /api/admin/users/{id}[/role|/ban|/warnings].
func (a *API) handleUserScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	userID := parts[0]
	switch {
	case len(parts) == 1:
		a.handleUserView(w, r, userID)
	case len(parts) == 2 && parts[1] == "role":
		a.handleRoleUpdate(w, r, userID)
	case len(parts) == 2 && parts[1] == "ban":
		a.handleBan(w, r, userID)
	case len(parts) == 2 && parts[1] == "warnings":
		a.handleWarningCreate(w, r, userID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleUserView(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	authz, err := a.gate.RequireModerator(r.Context())
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	user, err := a.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if !a.audit(w, r, authz, audit.Entry{
		Action:       audit.ActionUserView,
		TargetUserID: userID,
		EntityType:   "user",
		EntityID:     userID,
	}) {
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user": user})
}

// handleRoleUpdate changes a member's tier. Requires ultra_admin; validates
// the requested role against the fixed set, blocks self-demotion before any
// mutation, and reads the current role first so the audit record captures
// the from/to transition.
func (a *API) handleRoleUpdate(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	authz, err := a.gate.RequireUltraAdmin(r.Context())
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	var req updateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if userID == authz.Identity.ID && role != auth.RoleUltraAdmin {
		writeAuthError(w, r, auth.ErrSelfDemotion)
		return
	}

	current, err := a.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if err := a.profiles.UpdateProfileRole(r.Context(), userID, string(role)); err != nil {
		handleStoreError(w, r, err)
		return
	}
	if !a.audit(w, r, authz, audit.Entry{
		Action:       audit.ActionUserRoleUpdate,
		TargetUserID: userID,
		EntityType:   "user",
		EntityID:     userID,
		Metadata: map[string]string{
			"from_role": current.Role,
			"to_role":   string(role),
		},
	}) {
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user_id": userID, "role": role})
}

func (a *API) handleBan(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodPost:
		a.handleBanCreate(w, r, userID)
	case http.MethodDelete:
		a.handleBanDelete(w, r, userID)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodDelete)
	}
}

func (a *API) handleBanCreate(w http.ResponseWriter, r *http.Request, userID string) {
	authz, err := a.gate.RequireAdmin(r.Context())
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	var req banRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.DurationHours < 0 {
		writeError(w, r, http.StatusBadRequest, "duration_hours must not be negative")
		return
	}
	duration := time.Duration(req.DurationHours) * time.Hour
	if err := a.profiles.BanUser(r.Context(), userID, req.Reason, duration); err != nil {
		handleStoreError(w, r, err)
		return
	}
	meta := map[string]string{"reason": req.Reason}
	if req.DurationHours > 0 {
		meta["duration_hours"] = strconv.Itoa(req.DurationHours)
	} else {
		meta["duration_hours"] = "indefinite"
	}
	if !a.audit(w, r, authz, audit.Entry{
		Action:       audit.ActionUserBan,
		TargetUserID: userID,
		EntityType:   "user",
		EntityID:     userID,
		Metadata:     meta,
	}) {
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user_id": userID, "banned": true})
}

func (a *API) handleBanDelete(w http.ResponseWriter, r *http.Request, userID string) {
	authz, err := a.gate.RequireAdmin(r.Context())
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	if err := a.profiles.UnbanUser(r.Context(), userID); err != nil {
		handleStoreError(w, r, err)
		return
	}
	if !a.audit(w, r, authz, audit.Entry{
		Action:       audit.ActionUserUnban,
		TargetUserID: userID,
		EntityType:   "user",
		EntityID:     userID,
	}) {
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user_id": userID, "banned": false})
}

func (a *API) handleWarningCreate(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	authz, err := a.gate.RequireModerator(r.Context())
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	var req warningRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		writeError(w, r, http.StatusBadRequest, "reason is required")
		return
	}
	warning := &profile.Warning{
		UserID:   userID,
		IssuedBy: authz.Identity.ID,
		Reason:   req.Reason,
	}
	if err := a.profiles.CreateWarning(r.Context(), warning); err != nil {
		handleStoreError(w, r, err)
		return
	}
	if !a.audit(w, r, authz, audit.Entry{
		Action:       audit.ActionWarningCreate,
		TargetUserID: userID,
		EntityType:   "warning",
		EntityID:     warning.ID,
		Metadata:     map[string]string{"reason": req.Reason},
	}) {
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"warning": warning})
}

// handleWarningResource routes /api/admin/warnings/{id}.
func (a *API) handleWarningResource(w http.ResponseWriter, r *http.Request) {
	warningID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/warnings/"), "/")
	if warningID == "" || strings.Contains(warningID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	authz, err := a.gate.RequireAdmin(r.Context())
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	if err := a.profiles.DeleteWarning(r.Context(), warningID); err != nil {
		handleStoreError(w, r, err)
		return
	}
	if !a.audit(w, r, authz, audit.Entry{
		Action:     audit.ActionWarningDelete,
		EntityType: "warning",
		EntityID:   warningID,
	}) {
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"warning_id": warningID, "deleted": true})
}

// handleContentResource routes DELETE for listings, posts and events.
func (a *API) handleContentResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	collection, entityID := parts[0], parts[1]

	var (
		action string
		remove func(r *http.Request, id string) error
	)
	switch collection {
	case "listings":
		action = audit.ActionListingRemove
		remove = func(r *http.Request, id string) error { return a.profiles.RemoveListing(r.Context(), id) }
	case "posts":
		action = audit.ActionPostRemove
		remove = func(r *http.Request, id string) error { return a.profiles.RemovePost(r.Context(), id) }
	case "events":
		action = audit.ActionEventRemove
		remove = func(r *http.Request, id string) error { return a.profiles.RemoveEvent(r.Context(), id) }
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	authz, err := a.gate.RequireModerator(r.Context())
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	if err := remove(r, entityID); err != nil {
		handleStoreError(w, r, err)
		return
	}
	entityType := strings.TrimSuffix(collection, "s")
	meta := map[string]string{}
	if reason := strings.TrimSpace(r.URL.Query().Get("reason")); reason != "" {
		meta["reason"] = reason
	}
	if !a.audit(w, r, authz, audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   meta,
	}) {
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"entity_id": entityID, "removed": true})
}

// handleAuditLog lists recorded actions for review. The view itself is
// audited after the data has been fetched.
func (a *API) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	authz, err := a.gate.RequireAdmin(r.Context())
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	q := audit.Query{
		Action:      strings.TrimSpace(r.URL.Query().Get("action")),
		ActorUserID: strings.TrimSpace(r.URL.Query().Get("actor")),
		Limit:       limit,
	}
	records, err := a.recorder.List(r.Context(), q)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if !a.audit(w, r, authz, audit.Entry{
		Action:     audit.ActionAuditView,
		EntityType: "audit_log",
		Metadata:   map[string]string{"count": strconv.Itoa(len(records))},
	}) {
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"records": records})
}

func parsePositiveInt(raw string, def, min, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	if val < min || val > max {
		return 0, fmt.Errorf("limit must be between %d and %d", min, max)
	}
	return val, nil
}
