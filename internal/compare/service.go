// Package compare управляет списком сравнения товаров сессии.
package compare

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/productset"
	"github.com/vladislavdragonenkov/storefront/internal/session"
)

// DefaultLimit — максимальное число товаров в сравнении.
const DefaultLimit = 4

const (
	msgFull    = "لا يمكنك مقارنة أكثر من %d منتجات"
	msgExists  = "المنتج موجود بالفعل في المقارنة"
	msgAdded   = "تمت الإضافة للمقارنة"
	msgRemoved = "تمت الإزالة من المقارنة"
)

// Service — список сравнения с ограничением по количеству.
type Service struct {
	store   domain.SnapshotStore
	locker  *session.Locker
	limit   int
	metrics *metrics.CartMetrics
	logger  *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithLimit задаёт ёмкость списка сравнения.
func WithLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithMetrics подключает метрики персистентности.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService создаёт сервис сравнения.
func NewService(store domain.SnapshotStore, locker *session.Locker, opts ...Option) *Service {
	if locker == nil {
		locker = session.NewLocker(session.DefaultStripes)
	}
	s := &Service{
		store:  store,
		locker: locker,
		limit:  DefaultLimit,
		logger: log.NewEntry(log.StandardLogger()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limit возвращает ёмкость списка.
func (s *Service) Limit() int {
	return s.limit
}

// Items возвращает товары в порядке добавления.
func (s *Service) Items(ctx context.Context, sessionID string) ([]domain.Product, error) {
	var items []domain.Product
	err := s.with(ctx, sessionID, func(set *productset.Set) error {
		items = set.Items()
		return nil
	})
	return items, err
}

// Contains проверяет наличие товара в сравнении.
func (s *Service) Contains(ctx context.Context, sessionID, productID string) (bool, error) {
	var found bool
	err := s.with(ctx, sessionID, func(set *productset.Set) error {
		found = set.Contains(productID)
		return nil
	})
	return found, err
}

// Add добавляет товар. Заполненный список проверяется раньше дубликата:
// при полном списке возвращается ErrCompareFull даже для уже добавленного товара.
func (s *Service) Add(ctx context.Context, sessionID string, product domain.Product, notifier domain.Notifier) ([]domain.Product, error) {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}

	var items []domain.Product
	err := s.with(ctx, sessionID, func(set *productset.Set) error {
		items = set.Items()
		if set.Len() >= s.limit {
			notifier.Notify(domain.Notice{Level: domain.NoticeError, Message: fmt.Sprintf(msgFull, s.limit)})
			return domain.ErrCompareFull
		}
		if set.Contains(product.ID) {
			notifier.Notify(domain.Notice{Level: domain.NoticeInfo, Message: msgExists})
			return domain.ErrAlreadyInCompare
		}
		if _, err := set.Add(ctx, product); err != nil {
			return err
		}
		notifier.Notify(domain.Notice{Level: domain.NoticeSuccess, Message: msgAdded})
		items = set.Items()
		return nil
	})
	return items, err
}

// Remove удаляет товар из сравнения.
func (s *Service) Remove(ctx context.Context, sessionID, productID string, notifier domain.Notifier) ([]domain.Product, error) {
	var items []domain.Product
	err := s.with(ctx, sessionID, func(set *productset.Set) error {
		removed, err := set.Remove(ctx, productID)
		if err != nil {
			return err
		}
		if removed && notifier != nil {
			notifier.Notify(domain.Notice{Level: domain.NoticeSuccess, Message: msgRemoved})
		}
		items = set.Items()
		return nil
	})
	return items, err
}

// Clear очищает список сравнения.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.with(ctx, sessionID, func(set *productset.Set) error {
		return set.Clear(ctx)
	})
}

func (s *Service) with(ctx context.Context, sessionID string, fn func(*productset.Set) error) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	set, err := productset.Load(ctx, s.store, sessionID, domain.SnapshotKeyCompare, s.metrics, s.logger)
	if err != nil {
		return err
	}
	return fn(set)
}
