package domain

import (
	"context"
	"time"
)

// Ключи снимков в хранилище сессии.
const (
	SnapshotKeyCart     = "cart"
	SnapshotKeyWishlist = "wishlist"
	SnapshotKeyCompare  = "compare"
)

// SnapshotStore — долговременное хранилище снимков состояния сессии
// (аналог localStorage одного профиля браузера).
type SnapshotStore interface {
	// Load возвращает сохранённый снимок или ErrSnapshotNotFound.
	Load(ctx context.Context, sessionID, key string) ([]byte, error)
	// Save перезаписывает снимок целиком.
	Save(ctx context.Context, sessionID, key string, payload []byte) error
	// Delete удаляет снимок; отсутствие записи не ошибка.
	Delete(ctx context.Context, sessionID, key string) error
	// DeleteStale удаляет до limit снимков, не обновлявшихся с before.
	DeleteStale(ctx context.Context, before time.Time, limit int) (int, error)
}

// Notifier доставляет пользователю короткие уведомления (toast).
type Notifier interface {
	Notify(notice Notice)
}

// AnalyticsTracker принимает события аналитики. Реализация обязана быть best-effort:
// ошибки не возвращаются и не блокируют вызывающего.
type AnalyticsTracker interface {
	Track(ctx context.Context, event AnalyticsEvent)
}

// Catalog — внешний источник снимков товаров.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) (ProductPage, error)
}

// AnalyticsEventRepository сохраняет события аналитики (sink).
type AnalyticsEventRepository interface {
	Insert(ctx context.Context, event AnalyticsEvent) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
