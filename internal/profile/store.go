package profile

import (
	"context"
	"time"
)

// Store describes the persistence operations the admin routes need. The
// postgres implementation lives in internal/store/pg.
type Store interface {
	ListProfiles(ctx context.Context, limit int) ([]Profile, error)
	GetProfile(ctx context.Context, userID string) (Profile, error)
	UpdateProfileRole(ctx context.Context, userID, role string) error
	PasswordHash(ctx context.Context, userID string) (string, error)

	BanUser(ctx context.Context, userID, reason string, duration time.Duration) error
	UnbanUser(ctx context.Context, userID string) error

	CreateWarning(ctx context.Context, w *Warning) error
	DeleteWarning(ctx context.Context, warningID string) error

	RemoveListing(ctx context.Context, listingID string) error
	RemovePost(ctx context.Context, postID string) error
	RemoveEvent(ctx context.Context, eventID string) error
}
