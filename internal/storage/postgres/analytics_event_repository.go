package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type analyticsEventRepository struct {
	db *sql.DB
}

// NewAnalyticsEventRepository создаёт sink событий аналитики над таблицей analytics_events.
func NewAnalyticsEventRepository(store *Store) domain.AnalyticsEventRepository {
	return &analyticsEventRepository{db: store.DB()}
}

// Insert сохраняет событие; повторная доставка того же ID игнорируется.
func (r *analyticsEventRepository) Insert(ctx context.Context, event domain.AnalyticsEvent) error {
	if event.SessionID == "" {
		return domain.ErrSessionRequired
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analytics_events (
			id, event_type, session_id, visitor_id, page_url, product_id,
			product_name, order_id, order_total, user_agent, device_type, occurred_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::numeric,$10,$11,$12)
		ON CONFLICT (id) DO NOTHING
	`,
		event.ID, string(event.Type), event.SessionID,
		nullString(event.VisitorID), nullString(event.Page), nullString(event.ProductID),
		nullString(event.ProductName), nullString(event.OrderID), event.OrderTotal.String(),
		nullString(event.UserAgent), nullString(event.DeviceType), occurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert analytics event %s: %w", event.ID, err)
	}
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

var _ domain.AnalyticsEventRepository = (*analyticsEventRepository)(nil)
