package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestAnalyticsEventRepository_PostgresInsertIsIdempotent(t *testing.T) {
	store := openMigratedStore(t)
	repo := NewAnalyticsEventRepository(store)
	ctx := context.Background()

	event := domain.AnalyticsEvent{
		ID:         "evt-1",
		Type:       domain.AnalyticsCompletePurchase,
		SessionID:  "sess-1",
		OrderID:    "order-1",
		OrderTotal: decimal.RequireFromString("18500.50"),
		DeviceType: "mobile",
		OccurredAt: time.Now(),
	}
	for i := 0; i < 2; i++ {
		if err := repo.Insert(ctx, event); err != nil {
			t.Fatalf("insert #%d: %v", i, err)
		}
	}

	var count int
	if err := store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM analytics_events WHERE id = $1`, event.ID).Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected redelivery to be ignored, got %d rows", count)
	}

	if err := repo.Insert(ctx, domain.AnalyticsEvent{Type: domain.AnalyticsPageView}); !errors.Is(err, domain.ErrSessionRequired) {
		t.Fatalf("expected ErrSessionRequired, got %v", err)
	}
}
