package cart

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/notify"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type stubTracker struct {
	mu     sync.Mutex
	events []domain.AnalyticsEvent
}

func (s *stubTracker) Track(_ context.Context, event domain.AnalyticsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *stubTracker) Events() []domain.AnalyticsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AnalyticsEvent(nil), s.events...)
}

// failingStore делегирует в память, но может отказывать на Save.
type failingStore struct {
	domain.SnapshotStore
	failSave bool
	saves    int
}

func (f *failingStore) Save(ctx context.Context, sessionID, key string, payload []byte) error {
	f.saves++
	if f.failSave {
		return errors.New("storage quota exceeded")
	}
	return f.SnapshotStore.Save(ctx, sessionID, key, payload)
}

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

func newTestDeps(store domain.SnapshotStore) (Dependencies, *notify.Recorder, *stubTracker) {
	rec := notify.NewRecorder()
	tracker := &stubTracker{}
	return Dependencies{
		Store:    store,
		Tracker:  tracker,
		Notifier: rec,
		Metrics:  metrics.NewCartMetricsWithRegisterer(prometheus.NewRegistry()),
		Logger:   testLogger(),
		Now:      func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) },
	}, rec, tracker
}

func TestLoad_EmptyWhenNoSnapshot(t *testing.T) {
	deps, _, _ := newTestDeps(memory.NewSnapshotStore())

	c, err := Load(context.Background(), "s1", deps)
	require.NoError(t, err)
	require.Equal(t, 0, c.TotalItems())
	require.Empty(t, c.Cart().Lines)
}

func TestLoad_RequiresSession(t *testing.T) {
	deps, _, _ := newTestDeps(memory.NewSnapshotStore())

	_, err := Load(context.Background(), "", deps)
	require.ErrorIs(t, err, domain.ErrSessionRequired)
}

func TestContainer_RoundTripPersistence(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	deps, _, _ := newTestDeps(store)

	c, err := Load(ctx, "s1", deps)
	require.NoError(t, err)

	p1 := testProduct("p1", 20000, domain.StockOf(4))
	p2 := testProduct("p2", 15500, nil)
	_, err = c.Add(ctx, p1, 2)
	require.NoError(t, err)
	_, err = c.Add(ctx, p2, 1)
	require.NoError(t, err)

	reloaded, err := Load(ctx, "s1", deps)
	require.NoError(t, err)

	lines := reloaded.Cart().Lines
	require.Len(t, lines, 2)
	require.Equal(t, "p1", lines[0].Product.ID)
	require.Equal(t, 2, lines[0].Quantity)
	require.Equal(t, 4, *lines[0].Product.Stock)
	require.Equal(t, "p2", lines[1].Product.ID)
	require.Equal(t, 1, lines[1].Quantity)
	require.Nil(t, lines[1].Product.Stock)
	require.True(t, reloaded.TotalPrice().Equal(c.TotalPrice()))
}

func TestContainer_ClearPersistsEmptyArray(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	deps, _, _ := newTestDeps(store)

	c, err := Load(ctx, "s1", deps)
	require.NoError(t, err)
	_, err = c.Add(ctx, testProduct("p1", 100, nil), 3)
	require.NoError(t, err)
	_, err = c.Add(ctx, testProduct("p2", 100, nil), 1)
	require.NoError(t, err)

	require.NoError(t, c.Clear(ctx))
	require.Equal(t, 0, c.TotalItems())

	payload, err := store.Load(ctx, "s1", domain.SnapshotKeyCart)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(payload))
}

func TestContainer_AddNoticesAndTracking(t *testing.T) {
	ctx := context.Background()
	deps, rec, tracker := newTestDeps(memory.NewSnapshotStore())

	c, err := Load(ctx, "s1", deps)
	require.NoError(t, err)

	product := testProduct("p1", 100, domain.StockOf(5))
	outcome, err := c.Add(ctx, product, 3)
	require.NoError(t, err)
	require.Equal(t, domain.AddOutcomeAdded, outcome)

	outcome, err = c.Add(ctx, product, 1)
	require.ErrorIs(t, err, domain.ErrAlreadyInCart)
	require.Equal(t, domain.AddOutcomeExists, outcome)

	outcome, err = c.Add(ctx, product, 3)
	require.ErrorIs(t, err, domain.ErrStockLimitExceeded)
	require.Equal(t, domain.AddOutcomeRejected, outcome)

	_, err = c.Add(ctx, testProduct("p2", 100, domain.StockOf(0)), 1)
	require.ErrorIs(t, err, domain.ErrOutOfStock)

	notices := rec.Notices()
	require.Len(t, notices, 4)
	require.Equal(t, domain.Notice{Level: domain.NoticeSuccess, Message: msgAdded}, notices[0])
	require.Equal(t, domain.Notice{Level: domain.NoticeInfo, Message: msgAlreadyInCart}, notices[1])
	require.Equal(t, domain.Notice{Level: domain.NoticeError, Message: "متوفر فقط 2 من هذا المنتج"}, notices[2])
	require.Equal(t, domain.Notice{Level: domain.NoticeError, Message: msgOutOfStock}, notices[3])

	events := tracker.Events()
	require.Len(t, events, 1)
	require.Equal(t, domain.AnalyticsAddToCart, events[0].Type)
	require.Equal(t, "p1", events[0].ProductID)
	require.Equal(t, product.Name, events[0].ProductName)
	require.Equal(t, "s1", events[0].SessionID)
}

func TestContainer_LimitReachedNotice(t *testing.T) {
	ctx := context.Background()
	deps, rec, _ := newTestDeps(memory.NewSnapshotStore())

	c, err := Load(ctx, "s1", deps)
	require.NoError(t, err)

	product := testProduct("p1", 100, domain.StockOf(2))
	_, err = c.Add(ctx, product, 2)
	require.NoError(t, err)
	_, err = c.Add(ctx, product, 2)
	require.ErrorIs(t, err, domain.ErrStockLimitReached)

	last, ok := rec.Last()
	require.True(t, ok)
	require.Equal(t, msgLimitReached, last.Message)
}

func TestContainer_FailedSaveLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{SnapshotStore: memory.NewSnapshotStore()}
	deps, _, tracker := newTestDeps(store)

	c, err := Load(ctx, "s1", deps)
	require.NoError(t, err)
	_, err = c.Add(ctx, testProduct("p1", 100, nil), 2)
	require.NoError(t, err)

	store.failSave = true

	outcome, err := c.Add(ctx, testProduct("p2", 100, nil), 1)
	require.ErrorIs(t, err, domain.ErrSnapshotPersist)
	require.Equal(t, domain.AddOutcomeRejected, outcome)
	require.Len(t, c.Cart().Lines, 1)

	require.ErrorIs(t, c.UpdateQuantity(ctx, "p1", 5), domain.ErrSnapshotPersist)
	require.Equal(t, 2, c.TotalItems())

	require.ErrorIs(t, c.Remove(ctx, "p1"), domain.ErrSnapshotPersist)
	require.ErrorIs(t, c.Clear(ctx), domain.ErrSnapshotPersist)
	require.Equal(t, 2, c.TotalItems())

	require.Len(t, tracker.Events(), 1, "failed save must not emit analytics")
}

func TestContainer_CorruptSnapshotResetsToEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	deps, _, _ := newTestDeps(store)

	corrupt := []byte(`[{"product":{"id":"p1","price":"abc"},"quantity":2}]`)
	require.NoError(t, store.Save(ctx, "s1", domain.SnapshotKeyCart, corrupt))

	c, err := Load(ctx, "s1", deps)
	require.NoError(t, err)
	require.Empty(t, c.Cart().Lines)

	stored, err := store.Load(ctx, "s1", domain.SnapshotKeyCart)
	require.NoError(t, err)
	require.Equal(t, string(corrupt), string(stored), "corrupt value stays until next mutation")

	_, err = c.Add(ctx, testProduct("p9", 100, nil), 1)
	require.NoError(t, err)
	stored, err = store.Load(ctx, "s1", domain.SnapshotKeyCart)
	require.NoError(t, err)

	restored, err := DecodeSnapshot(stored)
	require.NoError(t, err)
	require.Len(t, restored.Lines, 1)
}

func TestContainer_UpdateQuantityScenario(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	deps, rec, _ := newTestDeps(store)

	c, err := Load(ctx, "s1", deps)
	require.NoError(t, err)

	product := testProduct("p1", 100, domain.StockOf(5))
	_, err = c.Add(ctx, product, 3)
	require.NoError(t, err)

	require.NoError(t, c.UpdateQuantity(ctx, "p1", 5))
	require.Equal(t, 5, c.TotalItems())

	err = c.UpdateQuantity(ctx, "p1", 6)
	var limit *domain.StockLimitError
	require.ErrorAs(t, err, &limit)
	require.True(t, limit.Absolute)
	require.Equal(t, 5, c.TotalItems())
	last, _ := rec.Last()
	require.Equal(t, "متوفر فقط 5 من هذا المنتج", last.Message)

	require.NoError(t, c.UpdateQuantity(ctx, "p1", 0))
	require.Empty(t, c.Cart().Lines)

	reloaded, err := Load(ctx, "s1", deps)
	require.NoError(t, err)
	require.Empty(t, reloaded.Cart().Lines)
}

func TestContainer_UpdateUnknownDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{SnapshotStore: memory.NewSnapshotStore()}
	deps, _, _ := newTestDeps(store)

	c, err := Load(ctx, "s1", deps)
	require.NoError(t, err)
	require.NoError(t, c.UpdateQuantity(ctx, "ghost", 3))
	require.Equal(t, 0, store.saves)
}
