package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"loopline.social/internal/audit"
)

var _ audit.Store = (*Store)(nil)

// Append inserts one immutable audit row. No update or delete statements
// exist for audit_log anywhere in this package.
func (s *Store) Append(ctx context.Context, rec *audit.Record) error {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return s.db.QueryRowContext(ctx, `
		insert into audit_log(id, actor_user_id, target_user_id, action, entity_type, entity_id, metadata, ip, user_agent)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		returning created_at
	`,
		rec.ID,
		rec.ActorUserID,
		nullable(rec.TargetUserID),
		rec.Action,
		rec.EntityType,
		nullable(rec.EntityID),
		meta,
		nullable(rec.IP),
		nullable(rec.UserAgent),
	).Scan(&rec.CreatedAt)
}

// List returns audit rows newest first, optionally filtered by action and
// actor.
func (s *Store) List(ctx context.Context, q audit.Query) ([]audit.Record, error) {
	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var (
		where []string
		args  []any
	)
	if strings.TrimSpace(q.Action) != "" {
		args = append(args, q.Action)
		where = append(where, fmt.Sprintf("action=$%d", len(args)))
	}
	if strings.TrimSpace(q.ActorUserID) != "" {
		args = append(args, q.ActorUserID)
		where = append(where, fmt.Sprintf("actor_user_id=$%d", len(args)))
	}
	query := `select id, created_at, actor_user_id, coalesce(target_user_id, ''), action, entity_type,
		coalesce(entity_id, ''), metadata, coalesce(ip, ''), coalesce(user_agent, '') from audit_log`
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" order by created_at desc limit $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []audit.Record
	for rows.Next() {
		var (
			rec  audit.Record
			meta []byte
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.ActorUserID, &rec.TargetUserID,
			&rec.Action, &rec.EntityType, &rec.EntityID, &meta, &rec.IP, &rec.UserAgent); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: strings.TrimSpace(v) != ""}
}
