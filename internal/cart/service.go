package cart

import (
	"context"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/session"
)

// Service открывает контейнеры корзины по сессии и сериализует операции одной
// сессии внутри процесса, чтобы конкурентные запросы не теряли записи.
type Service struct {
	deps   Dependencies
	locker *session.Locker
}

// NewService создаёт сервис корзины. locker может разделяться с другими
// контейнерами сессии (избранное, сравнение).
func NewService(deps Dependencies, locker *session.Locker) *Service {
	if locker == nil {
		locker = session.NewLocker(session.DefaultStripes)
	}
	return &Service{deps: deps, locker: locker}
}

// Do загружает контейнер сессии и выполняет fn под замком сессии.
// Уведомления операции доставляются в notifier.
func (s *Service) Do(ctx context.Context, sessionID string, notifier domain.Notifier, fn func(*Container) error) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	deps := s.deps
	deps.Notifier = notifier
	container, err := Load(ctx, sessionID, deps)
	if err != nil {
		return err
	}
	return fn(container)
}

// View возвращает текущее состояние корзины сессии.
func (s *Service) View(ctx context.Context, sessionID string) (domain.Cart, error) {
	var snapshot domain.Cart
	err := s.Do(ctx, sessionID, nil, func(c *Container) error {
		snapshot = c.Cart()
		return nil
	})
	return snapshot, err
}
