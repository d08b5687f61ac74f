package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// analyticsEventRepositoryInMemory хранит события аналитики; повторная вставка
// события с тем же ID игнорируется, как ON CONFLICT DO NOTHING в postgres.
type analyticsEventRepositoryInMemory struct {
	mu     sync.RWMutex
	events []domain.AnalyticsEvent
	ids    map[string]struct{}
}

// NewAnalyticsEventRepository создаёт in-memory sink событий аналитики.
func NewAnalyticsEventRepository() *analyticsEventRepositoryInMemory {
	return &analyticsEventRepositoryInMemory{ids: make(map[string]struct{})}
}

func (r *analyticsEventRepositoryInMemory) Insert(_ context.Context, event domain.AnalyticsEvent) error {
	if event.SessionID == "" {
		return domain.ErrSessionRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID != "" {
		if _, dup := r.ids[event.ID]; dup {
			return nil
		}
		r.ids[event.ID] = struct{}{}
	}
	r.events = append(r.events, event)
	return nil
}

// Events возвращает копию сохранённых событий (используется в тестах).
func (r *analyticsEventRepositoryInMemory) Events() []domain.AnalyticsEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.AnalyticsEvent, len(r.events))
	copy(out, r.events)
	return out
}

var _ domain.AnalyticsEventRepository = (*analyticsEventRepositoryInMemory)(nil)
