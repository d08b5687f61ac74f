// Package productset реализует упорядоченное множество товаров сессии,
// сохраняемое целиком в SnapshotStore. Основа для избранного и сравнения.
package productset

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/codec"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Set — множество товаров одной сессии под ключом key.
type Set struct {
	sessionID string
	key       string
	store     domain.SnapshotStore
	metrics   *metrics.CartMetrics
	logger    *log.Entry
	items     []domain.Product
}

// Load восстанавливает множество из хранилища. Повреждённый снимок даёт пустое множество.
func Load(ctx context.Context, store domain.SnapshotStore, sessionID, key string, m *metrics.CartMetrics, logger *log.Entry) (*Set, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionRequired
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	s := &Set{
		sessionID: sessionID,
		key:       key,
		store:     store,
		metrics:   m,
		logger:    logger.WithFields(log.Fields{"component": key, "session_id": sessionID}),
		items:     []domain.Product{},
	}

	payload, err := store.Load(ctx, sessionID, key)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load %s snapshot: %w", key, err)
	}

	items, err := codec.DecodeProducts(payload)
	if err != nil {
		s.logger.WithError(err).Warn("discarding corrupt snapshot")
		m.RecordCorruptSnapshot(key)
		return s, nil
	}
	s.items = items
	return s, nil
}

// Items возвращает копию товаров в порядке добавления.
func (s *Set) Items() []domain.Product {
	out := make([]domain.Product, len(s.items))
	copy(out, s.items)
	return out
}

// Len — количество товаров.
func (s *Set) Len() int {
	return len(s.items)
}

// Contains проверяет наличие товара.
func (s *Set) Contains(productID string) bool {
	return s.index(productID) >= 0
}

// Add добавляет товар в конец. Возвращает false без записи, если товар уже есть.
func (s *Set) Add(ctx context.Context, product domain.Product) (bool, error) {
	if errs := product.Validate(); len(errs) > 0 {
		return false, errs[0]
	}
	if s.Contains(product.ID) {
		return false, nil
	}

	next := make([]domain.Product, 0, len(s.items)+1)
	next = append(next, s.items...)
	next = append(next, product)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Remove удаляет товар. Возвращает false, если товара не было.
func (s *Set) Remove(ctx context.Context, productID string) (bool, error) {
	idx := s.index(productID)
	if idx < 0 {
		return false, nil
	}

	next := make([]domain.Product, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Clear очищает множество.
func (s *Set) Clear(ctx context.Context) error {
	return s.commit(ctx, []domain.Product{})
}

func (s *Set) index(productID string) int {
	for i, p := range s.items {
		if p.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Set) commit(ctx context.Context, next []domain.Product) error {
	payload, err := codec.EncodeProducts(next)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSnapshotPersist, err)
	}

	started := time.Now()
	err = s.store.Save(ctx, s.sessionID, s.key, payload)
	s.metrics.RecordPersist(s.key, time.Since(started), err)
	if err != nil {
		s.logger.WithError(err).Error("failed to persist snapshot")
		return fmt.Errorf("%w: %w", domain.ErrSnapshotPersist, err)
	}
	s.items = next
	return nil
}
