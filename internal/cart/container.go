package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Dependencies — внешние коллабораторы контейнера.
type Dependencies struct {
	Store    domain.SnapshotStore
	Tracker  domain.AnalyticsTracker
	Notifier domain.Notifier
	Metrics  *metrics.CartMetrics
	Logger   *log.Entry
	Now      func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Notifier == nil {
		d.Notifier = domain.NopNotifier{}
	}
	if d.Logger == nil {
		d.Logger = log.NewEntry(log.StandardLogger())
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Container владеет корзиной одной сессии. Каждая успешная мутация синхронно
// сохраняет снимок целиком до замены состояния в памяти.
// Container не потокобезопасен: конкурентный доступ сериализует Service.
type Container struct {
	sessionID string
	deps      Dependencies
	logger    *log.Entry
	state     domain.Cart
}

// Load создаёт контейнер, восстанавливая корзину из хранилища.
// Отсутствующий снимок даёт пустую корзину. Повреждённый снимок тоже даёт пустую
// корзину с предупреждением в логе; запись в хранилище остаётся до следующей мутации.
func Load(ctx context.Context, sessionID string, deps Dependencies) (*Container, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionRequired
	}
	if deps.Store == nil {
		return nil, errors.New("cart: snapshot store is required")
	}
	deps = deps.withDefaults()

	c := &Container{
		sessionID: sessionID,
		deps:      deps,
		logger:    deps.Logger.WithFields(log.Fields{"component": "cart", "session_id": sessionID}),
		state:     Clear(),
	}

	payload, err := deps.Store.Load(ctx, sessionID, domain.SnapshotKeyCart)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}

	restored, err := DecodeSnapshot(payload)
	if err != nil {
		c.logger.WithError(err).Warn("discarding corrupt cart snapshot")
		deps.Metrics.RecordCorruptSnapshot(domain.SnapshotKeyCart)
		return c, nil
	}
	c.state = restored
	return c, nil
}

// SessionID возвращает идентификатор сессии контейнера.
func (c *Container) SessionID() string {
	return c.sessionID
}

// Cart возвращает копию текущего состояния.
func (c *Container) Cart() domain.Cart {
	return c.state.Clone()
}

// TotalItems пересчитывается при каждом чтении.
func (c *Container) TotalItems() int {
	return c.state.TotalItems()
}

// TotalPrice пересчитывается при каждом чтении.
func (c *Container) TotalPrice() decimal.Decimal {
	return c.state.TotalPrice()
}

// Add добавляет товар. Отказы возвращаются как outcome exists/rejected вместе с
// причиной (ErrAlreadyInCart, ErrOutOfStock, *StockLimitError, ErrQuantityInvalid)
// и сопровождаются уведомлением. Ошибка сохранения оборачивает domain.ErrSnapshotPersist.
func (c *Container) Add(ctx context.Context, product domain.Product, quantity int) (domain.AddOutcome, error) {
	next, outcome, reason := Add(c.state, product, quantity)
	if reason != nil {
		c.deps.Metrics.RecordAdd(string(outcome), rejectionReason(reason))
		c.notify(outcome, reason)
		c.logger.WithFields(log.Fields{
			"product_id": product.ID,
			"quantity":   quantity,
			"outcome":    outcome,
		}).WithError(reason).Debug("add to cart declined")
		return outcome, reason
	}

	if err := c.commit(ctx, next); err != nil {
		c.deps.Metrics.RecordAdd(string(domain.AddOutcomeRejected), rejectionReason(err))
		return domain.AddOutcomeRejected, err
	}

	c.deps.Metrics.RecordAdd(string(outcome), "")
	c.notify(outcome, nil)
	c.track(ctx, product)
	return outcome, nil
}

// Remove удаляет позицию; отсутствие позиции не ошибка.
func (c *Container) Remove(ctx context.Context, productID string) error {
	if err := c.commit(ctx, Remove(c.state, productID)); err != nil {
		return err
	}
	c.deps.Metrics.RecordRemove()
	return nil
}

// UpdateQuantity устанавливает абсолютное количество. При превышении остатка
// состояние не меняется и возвращается *domain.StockLimitError.
func (c *Container) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	next, reason := SetQuantity(c.state, productID, quantity)
	if reason != nil {
		c.deps.Metrics.RecordUpdate("rejected")
		c.notify(domain.AddOutcomeRejected, reason)
		return reason
	}

	result := "set"
	switch {
	case c.state.Find(productID) < 0:
		result = "noop"
	case quantity <= 0:
		result = "removed"
	}
	if result == "noop" {
		c.deps.Metrics.RecordUpdate(result)
		return nil
	}

	if err := c.commit(ctx, next); err != nil {
		return err
	}
	c.deps.Metrics.RecordUpdate(result)
	return nil
}

// Clear очищает корзину и сохраняет пустой снимок.
func (c *Container) Clear(ctx context.Context) error {
	if err := c.commit(ctx, Clear()); err != nil {
		return err
	}
	c.deps.Metrics.RecordClear()
	return nil
}

func (c *Container) commit(ctx context.Context, next domain.Cart) error {
	payload, err := EncodeSnapshot(next)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSnapshotPersist, err)
	}

	started := c.deps.Now()
	err = c.deps.Store.Save(ctx, c.sessionID, domain.SnapshotKeyCart, payload)
	c.deps.Metrics.RecordPersist(domain.SnapshotKeyCart, c.deps.Now().Sub(started), err)
	if err != nil {
		c.logger.WithError(err).Error("failed to persist cart snapshot")
		return fmt.Errorf("%w: %w", domain.ErrSnapshotPersist, err)
	}

	c.state = next
	c.deps.Metrics.RecordCartSize(next.TotalItems())
	return nil
}

func (c *Container) notify(outcome domain.AddOutcome, reason error) {
	if notice, ok := noticeFor(outcome, reason); ok {
		c.deps.Notifier.Notify(notice)
	}
}

func (c *Container) track(ctx context.Context, product domain.Product) {
	if c.deps.Tracker == nil {
		return
	}
	c.deps.Tracker.Track(ctx, domain.AnalyticsEvent{
		Type:        domain.AnalyticsAddToCart,
		SessionID:   c.sessionID,
		ProductID:   product.ID,
		ProductName: product.Name,
		OccurredAt:  c.deps.Now().UTC(),
	})
}
