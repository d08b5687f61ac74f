package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestFromProduct_WritesPriceAsNumberAndNullStock(t *testing.T) {
	product := domain.Product{
		ID:    "ac-1",
		Name:  "تكييف كاريير 1.5 حصان انفرتر",
		Brand: "Carrier",
		Price: decimal.RequireFromString("25999.50"),
	}

	payload, err := EncodeProducts([]domain.Product{product})
	require.NoError(t, err)

	body := string(payload)
	require.Contains(t, body, `"price":25999.5`)
	require.Contains(t, body, `"stock":null`)
	require.Contains(t, body, `"old_price":null`)
}

func TestDecodeProducts_IgnoresUnknownFields(t *testing.T) {
	payload := []byte(`[{"id":"p1","name":"A","brand":"B","price":100,"oldPrice":120,"rating":4.5,"features":["x"],"stock":3}]`)

	products, err := DecodeProducts(payload)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "p1", products[0].ID)
	require.NotNil(t, products[0].Stock)
	require.Equal(t, 3, *products[0].Stock)
	require.True(t, products[0].Price.Equal(decimal.NewFromInt(100)))
}

func TestDecodeProducts_RejectsInvalidShape(t *testing.T) {
	cases := map[string]string{
		"not json":       `{{`,
		"object":         `{"id":"p1"}`,
		"null":           `null`,
		"missing id":     `[{"name":"A","price":1}]`,
		"missing price":  `[{"id":"p1"}]`,
		"negative price": `[{"id":"p1","price":-5}]`,
		"string stock":   `[{"id":"p1","price":5,"stock":"many"}]`,
		"duplicate":      `[{"id":"p1","price":5},{"id":"p1","price":6}]`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeProducts([]byte(payload))
			if !errors.Is(err, domain.ErrSnapshotCorrupt) {
				t.Fatalf("expected ErrSnapshotCorrupt, got %v", err)
			}
		})
	}
}

func TestDecodeProducts_EmptyArray(t *testing.T) {
	products, err := DecodeProducts([]byte(`[]`))
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestFromProduct_KeepsOldPrice(t *testing.T) {
	old := decimal.RequireFromString("30000")
	product := domain.Product{ID: "p1", Price: decimal.NewFromInt(27000), OldPrice: &old, Stock: domain.StockOf(0)}

	encoded := FromProduct(product)
	require.NotNil(t, encoded.OldPrice)
	require.Equal(t, "30000", encoded.OldPrice.String())

	decoded, err := encoded.ToProduct()
	require.NoError(t, err)
	require.True(t, decoded.OldPrice.Equal(old))
	require.True(t, decoded.Unavailable())
	require.False(t, strings.Contains(encoded.Price.String(), `"`))
}
