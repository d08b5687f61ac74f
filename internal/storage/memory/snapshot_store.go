package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type snapshotKey struct {
	sessionID string
	key       string
}

type snapshotRecord struct {
	payload   []byte
	updatedAt time.Time
}

// snapshotStoreInMemory — in-memory хранилище снимков сессии.
type snapshotStoreInMemory struct {
	mu      sync.RWMutex
	records map[snapshotKey]snapshotRecord
	now     func() time.Time
}

// NewSnapshotStore создаёт in-memory реализацию SnapshotStore.
func NewSnapshotStore() *snapshotStoreInMemory {
	return NewSnapshotStoreWithClock(time.Now)
}

// NewSnapshotStoreWithClock позволяет подменить часы (для тестов retention).
func NewSnapshotStoreWithClock(now func() time.Time) *snapshotStoreInMemory {
	if now == nil {
		now = time.Now
	}
	return &snapshotStoreInMemory{records: make(map[snapshotKey]snapshotRecord), now: now}
}

func (s *snapshotStoreInMemory) Load(_ context.Context, sessionID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[snapshotKey{sessionID: sessionID, key: key}]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return cloneBytes(record.payload), nil
}

func (s *snapshotStoreInMemory) Save(_ context.Context, sessionID, key string, payload []byte) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[snapshotKey{sessionID: sessionID, key: key}] = snapshotRecord{
		payload:   cloneBytes(payload),
		updatedAt: s.now().UTC(),
	}
	return nil
}

func (s *snapshotStoreInMemory) Delete(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, snapshotKey{sessionID: sessionID, key: key})
	return nil
}

// DeleteStale удаляет самые старые снимки, обновлённые раньше before.
func (s *snapshotStoreInMemory) DeleteStale(_ context.Context, before time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stale := make([]snapshotKey, 0)
	for k, record := range s.records {
		if record.updatedAt.Before(before) {
			stale = append(stale, k)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return s.records[stale[i]].updatedAt.Before(s.records[stale[j]].updatedAt)
	})
	if len(stale) > limit {
		stale = stale[:limit]
	}
	for _, k := range stale {
		delete(s.records, k)
	}
	return len(stale), nil
}

// Len возвращает число сохранённых снимков (используется в тестах).
func (s *snapshotStoreInMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

var _ domain.SnapshotStore = (*snapshotStoreInMemory)(nil)
