package productset

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type brokenStore struct {
	domain.SnapshotStore
}

func (brokenStore) Save(context.Context, string, string, []byte) error {
	return errors.New("read-only storage")
}

func quietLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

func product(id string) domain.Product {
	return domain.Product{ID: id, Name: "منتج " + id, Price: decimal.NewFromInt(1000)}
}

func TestSet_AddIsIdempotentAndPersisted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()

	s, err := Load(ctx, store, "s1", domain.SnapshotKeyWishlist, nil, quietLogger())
	require.NoError(t, err)

	added, err := s.Add(ctx, product("p1"))
	require.NoError(t, err)
	require.True(t, added)

	added, err = s.Add(ctx, product("p1"))
	require.NoError(t, err)
	require.False(t, added)

	_, err = s.Add(ctx, product("p2"))
	require.NoError(t, err)

	reloaded, err := Load(ctx, store, "s1", domain.SnapshotKeyWishlist, nil, quietLogger())
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.Len())
	require.Equal(t, "p1", reloaded.Items()[0].ID)
	require.True(t, reloaded.Contains("p2"))
}

func TestSet_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()

	s, err := Load(ctx, store, "s1", domain.SnapshotKeyCompare, nil, quietLogger())
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := s.Add(ctx, product(id))
		require.NoError(t, err)
	}

	removed, err := s.Remove(ctx, "p2")
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, []string{"p1", "p3"}, ids(s.Items()))

	removed, err = s.Remove(ctx, "p2")
	require.NoError(t, err)
	require.False(t, removed)

	require.NoError(t, s.Clear(ctx))
	payload, err := store.Load(ctx, "s1", domain.SnapshotKeyCompare)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(payload))
}

func TestSet_FailedSaveKeepsState(t *testing.T) {
	ctx := context.Background()
	s, err := Load(ctx, brokenStore{SnapshotStore: memory.NewSnapshotStore()}, "s1", domain.SnapshotKeyWishlist, nil, quietLogger())
	require.NoError(t, err)

	_, err = s.Add(ctx, product("p1"))
	require.ErrorIs(t, err, domain.ErrSnapshotPersist)
	require.Equal(t, 0, s.Len())
}

func TestSet_CorruptSnapshotIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	require.NoError(t, store.Save(ctx, "s1", domain.SnapshotKeyWishlist, []byte(`{"broken":true}`)))

	s, err := Load(ctx, store, "s1", domain.SnapshotKeyWishlist, nil, quietLogger())
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
}

func TestSet_AddRejectsInvalidProduct(t *testing.T) {
	ctx := context.Background()
	s, err := Load(ctx, memory.NewSnapshotStore(), "s1", domain.SnapshotKeyWishlist, nil, quietLogger())
	require.NoError(t, err)

	_, err = s.Add(ctx, domain.Product{Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domain.ErrProductIDRequired)
}

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}
