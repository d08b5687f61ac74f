package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Статусы строки outbox_messages (см. CHECK в миграции 0001).
const (
	outboxPending = "pending"
	outboxSent    = "sent"
	outboxFailed  = "failed"
)

const defaultOutboxBatch = 100

// outboxRepository хранит очередь событий аналитики витрины. Трекер пишет сюда
// события сессий, outbox-воркер забирает pending и отмечает результат доставки,
// retention-воркер удаляет доставленное.
type outboxRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewOutboxRepository создаёт PostgreSQL-реализацию OutboxRepository.
func NewOutboxRepository(store *Store) domain.OutboxRepository {
	return &outboxRepository{db: store.DB(), now: func() time.Time { return time.Now().UTC() }}
}

// Enqueue ставит событие в очередь. ID события служит ключом идемпотентности:
// повторная постановка не создаёт вторую строку.
func (r *outboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	ctx, cancel := withOpTimeout(context.Background())
	defer cancel()

	const query = `
		INSERT INTO outbox_messages
			(id, aggregate_type, aggregate_id, event_type, payload, status, attempt_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, outboxPending, r.now())
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("outbox enqueue %s (session %s): %w", msg.ID, msg.AggregateID, err)
	}
	return msg, nil
}

// PullPending возвращает до limit недоставленных событий в порядке постановки.
// Строки не блокируются: воркер в процессе один.
func (r *outboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = defaultOutboxBatch
	}

	ctx, cancel := withOpTimeout(context.Background())
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload
		FROM outbox_messages
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2`, outboxPending, limit)
	if err != nil {
		return nil, fmt.Errorf("outbox pull: %w", err)
	}
	defer rows.Close()

	var batch []domain.OutboxMessage
	for rows.Next() {
		var m domain.OutboxMessage
		if err := rows.Scan(&m.ID, &m.AggregateType, &m.AggregateID, &m.EventType, &m.Payload); err != nil {
			return nil, fmt.Errorf("outbox pull scan: %w", err)
		}
		batch = append(batch, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox pull rows: %w", err)
	}
	if batch == nil {
		batch = []domain.OutboxMessage{}
	}
	return batch, nil
}

// Stats считает backlog для health-проверки и gauge воркера.
func (r *outboxRepository) Stats() (domain.OutboxStats, error) {
	ctx, cancel := withOpTimeout(context.Background())
	defer cancel()

	var (
		count  int
		oldest sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at) FROM outbox_messages WHERE status = $1`, outboxPending,
	).Scan(&count, &oldest)
	if err != nil {
		return domain.OutboxStats{}, fmt.Errorf("outbox stats: %w", err)
	}

	stats := domain.OutboxStats{PendingCount: count}
	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time.UTC()
	}
	return stats, nil
}

func (r *outboxRepository) MarkSent(id string) error {
	return r.settle(id, outboxSent)
}

func (r *outboxRepository) MarkFailed(id string) error {
	return r.settle(id, outboxFailed)
}

// DeleteSent удаляет до limit доставленных событий, обновлённых раньше before.
func (r *outboxRepository) DeleteSent(ctx context.Context, before time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultOutboxBatch
	}

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM outbox_messages
		WHERE id IN (
			SELECT id FROM outbox_messages
			WHERE status = $1 AND updated_at < $2
			ORDER BY updated_at
			LIMIT $3
		)`, outboxSent, before.UTC(), limit)
	if err != nil {
		return 0, fmt.Errorf("outbox purge sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("outbox purge sent: %w", err)
	}
	return int(n), nil
}

// settle фиксирует итог доставки и считает попытку. Неизвестный ID даёт ErrOutboxPublish.
func (r *outboxRepository) settle(id, status string) error {
	ctx, cancel := withOpTimeout(context.Background())
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET status = $2, attempt_count = attempt_count + 1, updated_at = $3
		WHERE id = $1`, id, status, r.now())
	if err != nil {
		return fmt.Errorf("outbox mark %s %s: %w", id, status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("outbox mark %s %s: %w", id, status, err)
	}
	if n == 0 {
		return fmt.Errorf("outbox mark %s %s: %w", id, status, domain.ErrOutboxPublish)
	}
	return nil
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
