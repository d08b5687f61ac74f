// Package catalog содержит логику фильтрации витрины и in-memory каталог.
package catalog

import (
	"sort"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	// AllValue — значение фильтра "все" в интерфейсе витрины.
	AllValue = "الكل"
	// DefaultPageSize — шаг кнопки "показать ещё".
	DefaultPageSize = 12
	// MaxPageSize ограничивает размер страницы от клиента.
	MaxPageSize = 100

	inverterAr = "انفرتر"
	inverterEn = "inverter"
	regularAr  = "عادي"
)

// ParseInverter разбирает фильтр инвертора из query-параметра.
// Принимает значения интерфейса ("انفرتر", "عادي", "الكل") и латинские синонимы.
func ParseInverter(raw string) domain.InverterFilter {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case inverterAr, inverterEn:
		return domain.InverterOnly
	case regularAr, "regular":
		return domain.InverterRegular
	default:
		return domain.InverterAny
	}
}

// Normalize приводит "الكل" к пустому значению и выставляет пагинацию по умолчанию.
func Normalize(f domain.ProductFilter) domain.ProductFilter {
	f.Brand = normalizeValue(f.Brand)
	f.Capacity = normalizeValue(f.Capacity)
	f.Type = normalizeValue(f.Type)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

func normalizeValue(v string) string {
	v = strings.TrimSpace(v)
	if v == AllValue {
		return ""
	}
	return v
}

// IsInverter сообщает, что модель инверторная (по названию).
func IsInverter(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, inverterAr) || strings.Contains(lower, inverterEn)
}

// Matches проверяет товар по нормализованному фильтру.
func Matches(p domain.Product, f domain.ProductFilter) bool {
	if !p.IsActive {
		return false
	}
	if f.Brand != "" && p.Brand != f.Brand {
		return false
	}
	if f.Capacity != "" && p.Capacity != f.Capacity {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	switch f.Inverter {
	case domain.InverterOnly:
		return IsInverter(p.Name)
	case domain.InverterRegular:
		return !IsInverter(p.Name)
	default:
		return true
	}
}

// Apply фильтрует, сортирует (новые первыми) и режет на страницы.
func Apply(products []domain.Product, filter domain.ProductFilter) domain.ProductPage {
	f := Normalize(filter)

	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if Matches(p, f) {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := domain.ProductPage{Total: len(matched), Page: f.Page, PageSize: f.PageSize}
	start := (f.Page - 1) * f.PageSize
	if start >= len(matched) {
		page.Items = []domain.Product{}
		return page
	}
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	page.Items = matched[start:end]
	return page
}

// Facets — доступные значения фильтров по активным товарам.
type Facets struct {
	Brands     []string
	Capacities []string
	Types      []string
}

// BuildFacets собирает уникальные значения фильтров в алфавитном порядке.
func BuildFacets(products []domain.Product) Facets {
	brands := map[string]struct{}{}
	capacities := map[string]struct{}{}
	types := map[string]struct{}{}
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		addNonEmpty(brands, p.Brand)
		addNonEmpty(capacities, p.Capacity)
		addNonEmpty(types, p.Type)
	}
	return Facets{Brands: sortedKeys(brands), Capacities: sortedKeys(capacities), Types: sortedKeys(types)}
}

func addNonEmpty(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
