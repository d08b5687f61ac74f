package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

var baseTime = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func ac(id, name, brand, capacity, kind string, age int) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      name,
		Brand:     brand,
		Capacity:  capacity,
		Type:      kind,
		Price:     decimal.NewFromInt(20000),
		IsActive:  true,
		CreatedAt: baseTime.Add(-time.Duration(age) * time.Hour),
	}
}

func fixtures() []domain.Product {
	hidden := ac("p5", "تكييف مخفي", "Carrier", "1.5 حصان", "بارد فقط", 0)
	hidden.IsActive = false
	return []domain.Product{
		ac("p1", "تكييف كاريير انفرتر 1.5 حصان", "Carrier", "1.5 حصان", "بارد ساخن", 5),
		ac("p2", "Sharp Inverter Split", "Sharp", "2.25 حصان", "بارد فقط", 1),
		ac("p3", "تكييف شارب عادي", "Sharp", "1.5 حصان", "بارد فقط", 3),
		ac("p4", "تكييف ميديا", "Midea", "3 حصان", "بارد ساخن", 2),
		hidden,
	}
}

func pageIDs(page domain.ProductPage) []string {
	ids := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestApply_AllMeansNoFilterAndNewestFirst(t *testing.T) {
	page := Apply(fixtures(), domain.ProductFilter{Brand: AllValue, Capacity: AllValue, Type: ""})
	require.Equal(t, []string{"p2", "p4", "p3", "p1"}, pageIDs(page))
	require.Equal(t, 4, page.Total)
	require.False(t, page.HasMore())
}

func TestApply_FieldFilters(t *testing.T) {
	page := Apply(fixtures(), domain.ProductFilter{Brand: "Sharp", Capacity: "1.5 حصان"})
	require.Equal(t, []string{"p3"}, pageIDs(page))

	page = Apply(fixtures(), domain.ProductFilter{Type: "بارد ساخن"})
	require.Equal(t, []string{"p4", "p1"}, pageIDs(page))
}

func TestApply_InverterFilter(t *testing.T) {
	page := Apply(fixtures(), domain.ProductFilter{Inverter: ParseInverter("انفرتر")})
	require.Equal(t, []string{"p2", "p1"}, pageIDs(page))

	page = Apply(fixtures(), domain.ProductFilter{Inverter: ParseInverter("عادي")})
	require.Equal(t, []string{"p4", "p3"}, pageIDs(page))

	require.Equal(t, domain.InverterAny, ParseInverter(AllValue))
	require.Equal(t, domain.InverterOnly, ParseInverter("Inverter"))
}

func TestApply_Pagination(t *testing.T) {
	var products []domain.Product
	for i := 0; i < 30; i++ {
		products = append(products, ac(fmt.Sprintf("p%02d", i), "تكييف", "LG", "1.5 حصان", "بارد فقط", i))
	}

	first := Apply(products, domain.ProductFilter{})
	require.Len(t, first.Items, DefaultPageSize)
	require.Equal(t, "p00", first.Items[0].ID)
	require.True(t, first.HasMore())

	third := Apply(products, domain.ProductFilter{Page: 3})
	require.Len(t, third.Items, 6)
	require.False(t, third.HasMore())

	beyond := Apply(products, domain.ProductFilter{Page: 9})
	require.Empty(t, beyond.Items)
	require.Equal(t, 30, beyond.Total)

	capped := Normalize(domain.ProductFilter{PageSize: 1000})
	require.Equal(t, MaxPageSize, capped.PageSize)
}

func TestBuildFacets(t *testing.T) {
	facets := BuildFacets(fixtures())
	require.Equal(t, []string{"Carrier", "Midea", "Sharp"}, facets.Brands)
	require.Equal(t, []string{"1.5 حصان", "2.25 حصان", "3 حصان"}, facets.Capacities)
	require.Len(t, facets.Types, 2)
}

func TestMemory_GetProductHidesInactive(t *testing.T) {
	m := NewMemory(fixtures()...)

	p, err := m.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Carrier", p.Brand)

	_, err = m.GetProduct(context.Background(), "p5")
	require.True(t, errors.Is(err, domain.ErrProductNotFound))

	_, err = m.GetProduct(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestParseSeed(t *testing.T) {
	payload := []byte(`[
		{"id":"ac-1","name":"تكييف كاريير","brand":"Carrier","price":21500,"old_price":23000,"stock":5,"created_at":"2025-01-10T00:00:00Z"},
		{"id":"ac-2","name":"تكييف شارب","brand":"Sharp","price":18000,"stock":null,"is_active":false}
	]`)

	products, err := ParseSeed(payload)
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.True(t, products[0].IsActive)
	require.Equal(t, 5, *products[0].Stock)
	require.True(t, products[0].OldPrice.Equal(decimal.NewFromInt(23000)))
	require.False(t, products[1].IsActive)
	require.True(t, products[1].Unlimited())

	_, err = ParseSeed([]byte(`[{"id":"a","price":1},{"id":"a","price":2}]`))
	require.Error(t, err)
}

func TestDefaultSeed_IsValid(t *testing.T) {
	products, err := DefaultSeed()
	require.NoError(t, err)
	require.NotEmpty(t, products)

	m := NewMemory(products...)
	page, err := m.ListProducts(context.Background(), domain.ProductFilter{Inverter: domain.InverterOnly})
	require.NoError(t, err)
	for _, p := range page.Items {
		require.True(t, IsInverter(p.Name), p.Name)
	}
}
