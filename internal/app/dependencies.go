package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/service/retention"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// runtimeDependencies — хранилища, выбранные драйвером storage.
type runtimeDependencies struct {
	snapshots  domain.SnapshotStore
	outboxRepo domain.OutboxRepository
	catalog    httpapi.Catalog
	// store не nil только для postgres; используется readiness-проверкой.
	store *postgres.Store
}

// outboxPurger возвращает очистку отправленных сообщений, если хранилище её поддерживает.
func (d *runtimeDependencies) outboxPurger() retention.SentOutboxPurger {
	purger, _ := d.outboxRepo.(retention.SentOutboxPurger)
	return purger
}

func (d *runtimeDependencies) Close() error {
	if d == nil || d.store == nil {
		return nil
	}
	return d.store.Close()
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	seed, err := loadSeed(cfg.CatalogSeedPath)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.StorageDriver)) {
	case "", StorageDriverMemory:
		logger.WithField("products", len(seed)).Info("using in-memory storage")
		return &runtimeDependencies{
			snapshots:  memory.NewSnapshotStore(),
			outboxRepo: memory.NewOutboxRepository(),
			catalog:    catalog.NewMemory(seed...),
		}, nil

	case StorageDriverPostgres:
		dsn := strings.TrimSpace(cfg.PostgresDSN)
		if dsn == "" {
			return nil, errors.New("postgres storage requires STOREFRONT_POSTGRES_DSN")
		}
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			state, err := store.MigrationStatus(ctx)
			if err == nil {
				logger.WithField("schema", state.String()).Info("postgres schema is up to date")
			}
		}

		products := postgres.NewCatalog(store)
		// Встроенный демонстрационный набор в postgres не попадает: только явно указанный файл.
		if cfg.CatalogSeedPath != "" {
			inserted, err := seedCatalog(ctx, products, seed)
			if err != nil {
				_ = store.Close()
				return nil, err
			}
			logger.WithField("inserted", inserted).Info("catalog seed applied")
		}

		logger.Info("using postgres storage")
		return &runtimeDependencies{
			snapshots:  postgres.NewSnapshotStore(store),
			outboxRepo: postgres.NewOutboxRepository(store),
			catalog:    products,
			store:      store,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func loadSeed(path string) ([]domain.Product, error) {
	if path == "" {
		return catalog.DefaultSeed()
	}
	products, err := catalog.LoadSeedFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog seed: %w", err)
	}
	return products, nil
}

// seedCatalog вставляет товары, пропуская уже существующие.
func seedCatalog(ctx context.Context, repo postgres.CatalogRepository, products []domain.Product) (int, error) {
	inserted := 0
	for _, p := range products {
		err := repo.Insert(ctx, p)
		switch {
		case errors.Is(err, postgres.ErrProductExists):
		case err != nil:
			return inserted, fmt.Errorf("seed product %s: %w", p.ID, err)
		default:
			inserted++
		}
	}
	return inserted, nil
}
