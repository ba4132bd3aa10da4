package audit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"loopline.social/internal/ids"
)

// Store appends immutable records and lists them for review. There is no
// update or delete: the log is append-only by contract.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context, q Query) ([]Record, error)
}

// Query filters audit listings. Zero values mean "no filter".
type Query struct {
	Action      string
	ActorUserID string
	Limit       int
}

// Entry describes one privileged action to record. Callers are trusted to
// supply well-formed fields; only the required ones are checked.
type Entry struct {
	ActorUserID  string
	TargetUserID string
	Action       string
	EntityType   string
	EntityID     string
	Metadata     map[string]string
	IP           string
	UserAgent    string
}

// Recorder durably appends one record per privileged action.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record validates the entry shape and performs a single insert. An insert
// failure is returned to the caller; the route layer decides how to surface
// it.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.Action) == "" {
		return errors.New("audit: action is required")
	}
	if strings.TrimSpace(e.ActorUserID) == "" {
		return errors.New("audit: actor_user_id is required")
	}
	rec := &Record{
		ID:           ids.New(),
		ActorUserID:  e.ActorUserID,
		TargetUserID: e.TargetUserID,
		Action:       e.Action,
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		Metadata:     e.Metadata,
		IP:           e.IP,
		UserAgent:    e.UserAgent,
	}
	if err := r.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

// List returns recorded actions, newest first.
func (r *Recorder) List(ctx context.Context, q Query) ([]Record, error) {
	return r.store.List(ctx, q)
}

// Provenance derives the client address and user agent from the request.
// The address is the first hop of X-Forwarded-For when present, otherwise
// the connection peer.
func Provenance(r *http.Request) (ip, userAgent string) {
	if r == nil {
		return "", ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		ip = strings.TrimSpace(parts[0])
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	} else {
		ip = r.RemoteAddr
	}
	return ip, r.Header.Get("User-Agent")
}
