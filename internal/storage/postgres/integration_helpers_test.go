package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// integrationDSN возвращает DSN тестовой базы; без STOREFRONT_POSTGRES_TEST_DSN
// интеграционные тесты пропускаются, чтобы не трогать рабочую базу из STOREFRONT_POSTGRES_DSN.
func integrationDSN(t *testing.T) string {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("STOREFRONT_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("STOREFRONT_POSTGRES_TEST_DSN is not set")
	}
	return dsn
}

// openTestStore открывает Store без миграций.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	store, err := Open(ctx, integrationDSN(t))
	if err != nil {
		t.Skipf("postgres is not reachable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// openMigratedStore открывает Store, применяет все миграции и очищает таблицы.
func openMigratedStore(t *testing.T) *Store {
	t.Helper()

	store := openTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, store.MigrateUp(ctx, 0))
	_, err := store.DB().ExecContext(ctx,
		`TRUNCATE TABLE session_snapshots, outbox_messages, products, analytics_events`)
	require.NoError(t, err)
	return store
}
