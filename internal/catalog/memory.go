package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/codec"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Memory — каталог в памяти, обычно заполняемый из seed-файла.
type Memory struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewMemory создаёт каталог с заданными товарами.
func NewMemory(products ...domain.Product) *Memory {
	m := &Memory{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

// seedProduct — формат записи seed-файла.
type seedProduct struct {
	codec.ProductJSON
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseSeed разбирает JSON-массив товаров. is_active по умолчанию true.
func ParseSeed(payload []byte) ([]domain.Product, error) {
	var raw []seedProduct
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}

	products := make([]domain.Product, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, item := range raw {
		p, err := item.ToProduct()
		if err != nil {
			return nil, fmt.Errorf("catalog seed item %d: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("catalog seed item %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if item.IsActive != nil {
			p.IsActive = *item.IsActive
		}
		p.CreatedAt = item.CreatedAt
		products = append(products, p)
	}
	return products, nil
}

// LoadSeedFile читает seed-файл с диска.
func LoadSeedFile(path string) ([]domain.Product, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}
	return ParseSeed(payload)
}

// Upsert добавляет или заменяет товар.
func (m *Memory) Upsert(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// GetProduct возвращает активный товар или ErrProductNotFound.
func (m *Memory) GetProduct(_ context.Context, id string) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok || !p.IsActive {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

// ListProducts применяет фильтры витрины.
func (m *Memory) ListProducts(_ context.Context, filter domain.ProductFilter) (domain.ProductPage, error) {
	return Apply(m.snapshot(), filter), nil
}

// Facets возвращает доступные значения фильтров.
func (m *Memory) Facets(_ context.Context) (Facets, error) {
	return BuildFacets(m.snapshot()), nil
}

func (m *Memory) snapshot() []domain.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out
}

var _ domain.Catalog = (*Memory)(nil)

//go:embed seed/default.json
var defaultSeed []byte

// DefaultSeed возвращает встроенный демонстрационный набор товаров.
func DefaultSeed() ([]domain.Product, error) {
	return ParseSeed(defaultSeed)
}
