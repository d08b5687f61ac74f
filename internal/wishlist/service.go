// Package wishlist управляет избранным сессии.
package wishlist

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/productset"
	"github.com/vladislavdragonenkov/storefront/internal/session"
)

const (
	msgAdded   = "تمت الإضافة للمفضلة"
	msgRemoved = "تمت الإزالة من المفضلة"
)

// Service — избранное, сохраняемое под ключом wishlist.
type Service struct {
	store   domain.SnapshotStore
	locker  *session.Locker
	metrics *metrics.CartMetrics
	logger  *log.Entry
}

// NewService создаёт сервис избранного.
func NewService(store domain.SnapshotStore, locker *session.Locker, m *metrics.CartMetrics, logger *log.Entry) *Service {
	if locker == nil {
		locker = session.NewLocker(session.DefaultStripes)
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Service{store: store, locker: locker, metrics: m, logger: logger}
}

// Items возвращает товары избранного в порядке добавления.
func (s *Service) Items(ctx context.Context, sessionID string) ([]domain.Product, error) {
	var items []domain.Product
	err := s.with(ctx, sessionID, func(set *productset.Set) error {
		items = set.Items()
		return nil
	})
	return items, err
}

// Contains проверяет наличие товара в избранном.
func (s *Service) Contains(ctx context.Context, sessionID, productID string) (bool, error) {
	var found bool
	err := s.with(ctx, sessionID, func(set *productset.Set) error {
		found = set.Contains(productID)
		return nil
	})
	return found, err
}

// Add добавляет товар; повторное добавление ничего не меняет.
func (s *Service) Add(ctx context.Context, sessionID string, product domain.Product, notifier domain.Notifier) ([]domain.Product, error) {
	var items []domain.Product
	err := s.with(ctx, sessionID, func(set *productset.Set) error {
		added, err := set.Add(ctx, product)
		if err != nil {
			return err
		}
		if added && notifier != nil {
			notifier.Notify(domain.Notice{Level: domain.NoticeSuccess, Message: msgAdded})
		}
		items = set.Items()
		return nil
	})
	return items, err
}

// Remove удаляет товар; отсутствие товара не ошибка.
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

// Clear очищает избранное.
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

	set, err := productset.Load(ctx, s.store, sessionID, domain.SnapshotKeyWishlist, s.metrics, s.logger)
	if err != nil {
		return err
	}
	return fn(set)
}
