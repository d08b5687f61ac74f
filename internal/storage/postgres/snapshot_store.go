package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type snapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore создаёт PostgreSQL-реализацию SnapshotStore над таблицей session_snapshots.
func NewSnapshotStore(store *Store) domain.SnapshotStore {
	return &snapshotStore{db: store.DB()}
}

func (s *snapshotStore) Load(ctx context.Context, sessionID, key string) ([]byte, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload
		FROM session_snapshots
		WHERE session_id = $1 AND snapshot_key = $2
	`, sessionID, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s/%s: %w", sessionID, key, err)
	}
	return payload, nil
}

// Save пишет снимок как JSONB. Некорректный JSON отклоняется самой базой:
// такой снимок не может появиться в таблице.
func (s *snapshotStore) Save(ctx context.Context, sessionID, key string, payload []byte) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_snapshots (session_id, snapshot_key, payload, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $4)
		ON CONFLICT (session_id, snapshot_key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    updated_at = EXCLUDED.updated_at
	`, sessionID, key, string(payload), now)
	if err != nil {
		return fmt.Errorf("save snapshot %s/%s: %w", sessionID, key, err)
	}
	return nil
}

func (s *snapshotStore) Delete(ctx context.Context, sessionID, key string) error {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM session_snapshots
		WHERE session_id = $1 AND snapshot_key = $2
	`, sessionID, key); err != nil {
		return fmt.Errorf("delete snapshot %s/%s: %w", sessionID, key, err)
	}
	return nil
}

func (s *snapshotStore) DeleteStale(ctx context.Context, before time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM session_snapshots
		WHERE (session_id, snapshot_key) IN (
			SELECT session_id, snapshot_key
			FROM session_snapshots
			WHERE updated_at < $1
			ORDER BY updated_at
			LIMIT $2
		)
	`, before.UTC(), limit)
	if err != nil {
		return 0, fmt.Errorf("delete stale snapshots: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for stale snapshots: %w", err)
	}
	return int(affected), nil
}

var _ domain.SnapshotStore = (*snapshotStore)(nil)
