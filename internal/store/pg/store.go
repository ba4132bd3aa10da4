package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"loopline.social/internal/ids"
	"loopline.social/internal/profile"
)

// Store implements the profile, audit and role-lookup persistence over
// PostgreSQL. One pooled handle is constructed in main and injected
// everywhere it is needed.
type Store struct {
	db *sql.DB
}

var _ profile.Store = (*Store)(nil)

// Open connects with pool settings tuned for a request-bound workload.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle; used by tests.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// ProfileRole is the resolver's single-row lookup. A missing row is not an
// error; it reports ok=false so resolution can fall through to token hints.
func (s *Store) ProfileRole(ctx context.Context, userID string) (string, bool, error) {
	var role sql.NullString
	err := s.db.QueryRowContext(ctx,
		`select role from profiles where id=$1`, userID,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return role.String, true, nil
}

func (s *Store) ListProfiles(ctx context.Context, limit int) ([]profile.Profile, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`select id, username, coalesce(role, ''), created_at, updated_at
		 from profiles order by created_at desc limit $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []profile.Profile
	for rows.Next() {
		var p profile.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *Store) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	var p profile.Profile
	err := s.db.QueryRowContext(ctx,
		`select id, username, coalesce(role, ''), created_at, updated_at
		 from profiles where id=$1`, userID,
	).Scan(&p.ID, &p.Username, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (s *Store) UpdateProfileRole(ctx context.Context, userID, role string) error {
	res, err := s.db.ExecContext(ctx,
		`update profiles set role=$2, updated_at=now() where id=$1`, userID, role)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

// CreateAccount provisions a profile row and its local credentials in one
// transaction. Only the useradd tool calls this; the API never creates
// accounts.
func (s *Store) CreateAccount(ctx context.Context, userID, username, passwordHash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`insert into profiles(id, username) values ($1,$2)`, userID, username); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into accounts(profile_id, password_hash) values ($1,$2)`, userID, passwordHash); err != nil {
		return err
	}
	return tx.Commit()
}

// PasswordHash returns the stored hash of a local account.
func (s *Store) PasswordHash(ctx context.Context, userID string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`select password_hash from accounts where profile_id=$1`, userID,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", profile.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// BanUser upserts the ban row; duration<=0 means indefinite.
func (s *Store) BanUser(ctx context.Context, userID, reason string, duration time.Duration) error {
	var expires *time.Time
	if duration > 0 {
		t := time.Now().UTC().Add(duration)
		expires = &t
	}
	_, err := s.db.ExecContext(ctx, `
		insert into bans(user_id, reason, expires_at)
		values ($1,$2,$3)
		on conflict (user_id) do update
		set reason = excluded.reason, expires_at = excluded.expires_at, created_at = now()
	`, userID, reason, expires)
	return err
}

func (s *Store) UnbanUser(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `delete from bans where user_id=$1`, userID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func (s *Store) CreateWarning(ctx context.Context, w *profile.Warning) error {
	if w.ID == "" {
		w.ID = ids.New()
	}
	return s.db.QueryRowContext(ctx, `
		insert into warnings(id, user_id, issued_by, reason)
		values ($1,$2,$3,$4)
		returning created_at
	`, w.ID, w.UserID, w.IssuedBy, w.Reason).Scan(&w.CreatedAt)
}

func (s *Store) DeleteWarning(ctx context.Context, warningID string) error {
	res, err := s.db.ExecContext(ctx, `delete from warnings where id=$1`, warningID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func (s *Store) RemoveListing(ctx context.Context, listingID string) error {
	return s.removeContent(ctx, "listings", listingID)
}

func (s *Store) RemovePost(ctx context.Context, postID string) error {
	return s.removeContent(ctx, "posts", postID)
}

func (s *Store) RemoveEvent(ctx context.Context, eventID string) error {
	return s.removeContent(ctx, "events", eventID)
}

// removeContent soft-deletes so moderation decisions stay reviewable next to
// their audit records.
func (s *Store) removeContent(ctx context.Context, table, id string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`update %s set removed_at=now() where id=$1 and removed_at is null`, table), id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return profile.ErrNotFound
	}
	return nil
}
