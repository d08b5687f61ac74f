package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestWorker_RunOnce_DeletesOnlyExpiredSnapshots(t *testing.T) {
	t.Parallel()

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := memory.NewSnapshotStoreWithClock(func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", domain.SnapshotKeyCart, []byte(`[]`)))
	clock = clock.Add(48 * time.Hour)
	require.NoError(t, store.Save(ctx, "fresh", domain.SnapshotKeyCart, []byte(`[]`)))

	worker := NewWorker(store,
		WithSnapshotTTL(24*time.Hour),
		WithClock(func() time.Time { return clock }),
	)
	require.Equal(t, 1, worker.RunOnce(ctx))

	_, err := store.Load(ctx, "old", domain.SnapshotKeyCart)
	require.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	_, err = store.Load(ctx, "fresh", domain.SnapshotKeyCart)
	require.NoError(t, err)
}

func TestWorker_RunOnce_DrainsInBatches(t *testing.T) {
	t.Parallel()

	purger := &stubPurger{results: []int{2, 2, 1}}
	worker := NewWorker(purger, WithBatchSize(2))

	require.Equal(t, 5, worker.RunOnce(context.Background()))
	require.Equal(t, 3, purger.calls())
}

func TestWorker_RunOnce_ErrorIsCounted(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	purger := &stubPurger{errs: []error{errors.New("boom")}}
	worker := NewWorker(purger, WithMetrics(metrics.NewRetentionMetricsWithRegisterer(reg)))

	require.Equal(t, 0, worker.RunOnce(context.Background()))

	families, err := reg.Gather()
	require.NoError(t, err)
	var errorsSeen float64
	for _, family := range families {
		if family.GetName() == "storefront_retention_errors_total" {
			errorsSeen = family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	require.Equal(t, 1.0, errorsSeen)
}

func TestWorker_RunOnce_PurgesSentOutbox(t *testing.T) {
	t.Parallel()

	outbox := memory.NewOutboxRepository()
	sent, err := outbox.Enqueue(domain.OutboxMessage{AggregateType: "session"})
	require.NoError(t, err)
	pending, err := outbox.Enqueue(domain.OutboxMessage{AggregateType: "session"})
	require.NoError(t, err)
	require.NoError(t, outbox.MarkSent(sent.ID))

	worker := NewWorker(&stubPurger{},
		WithOutbox(outbox, time.Nanosecond),
		WithClock(func() time.Time { return time.Now().Add(time.Hour) }),
	)
	worker.RunOnce(context.Background())

	_, ok := outbox.Status(sent.ID)
	require.False(t, ok)
	_, ok = outbox.Status(pending.ID)
	require.True(t, ok)
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	purger := &stubPurger{}
	worker := NewWorker(purger, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
	require.Positive(t, purger.calls())
}

type stubPurger struct {
	mu        sync.Mutex
	results   []int
	errs      []error
	callCount int
}

func (s *stubPurger) DeleteStale(context.Context, time.Time, int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return 0, err
	}
	if len(s.results) == 0 {
		return 0, nil
	}
	result := s.results[0]
	s.results = s.results[1:]
	return result, nil
}

func (s *stubPurger) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}
