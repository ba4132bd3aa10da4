package audit

import "time"

// Action names are dotted and namespaced. Every privileged route records
// exactly one of these after its operation completes.
const (
	ActionUserListView   = "admin.user.list.view"
	ActionUserView       = "admin.user.view"
	ActionUserRoleUpdate = "admin.user.role.update"
	ActionUserBan        = "admin.user.ban"
	ActionUserUnban      = "admin.user.unban"
	ActionWarningCreate  = "admin.warning.create"
	ActionWarningDelete  = "admin.warning.delete"
	ActionListingRemove  = "admin.listing.remove"
	ActionPostRemove     = "admin.post.remove"
	ActionEventRemove    = "admin.event.remove"
	ActionAuditView      = "admin.audit.view"
)

// Record is one immutable row of the audit log. Once appended it is never
// mutated or deleted by this service.
type Record struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	ActorUserID  string            `json:"actor_user_id"`
	TargetUserID string            `json:"target_user_id,omitempty"`
	Action       string            `json:"action"`
	EntityType   string            `json:"entity_type"`
	EntityID     string            `json:"entity_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	IP           string            `json:"ip,omitempty"`
	UserAgent    string            `json:"user_agent,omitempty"`
}
