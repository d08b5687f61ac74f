// Package codec описывает JSON-представление товара, общее для снимков сессии и HTTP API.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ProductJSON — форма товара в снимке. Неизвестные поля игнорируются при чтении,
// чтобы снимки старых версий витрины с лишними полями (rating, features) оставались валидными.
type ProductJSON struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Brand    string       `json:"brand"`
	Price    json.Number  `json:"price"`
	OldPrice *json.Number `json:"old_price"`
	Capacity string       `json:"capacity,omitempty"`
	Type     string       `json:"type,omitempty"`
	ImageURL string       `json:"image_url,omitempty"`
	Stock    *int         `json:"stock"`
}

// FromProduct строит JSON-представление товара.
func FromProduct(p domain.Product) ProductJSON {
	out := ProductJSON{
		ID:       p.ID,
		Name:     p.Name,
		Brand:    p.Brand,
		Price:    json.Number(p.Price.String()),
		Capacity: p.Capacity,
		Type:     p.Type,
		ImageURL: p.ImageURL,
	}
	if p.OldPrice != nil {
		old := json.Number(p.OldPrice.String())
		out.OldPrice = &old
	}
	if p.Stock != nil {
		stock := *p.Stock
		out.Stock = &stock
	}
	return out
}

// ToProduct разбирает представление и проверяет контракт товара.
func (p ProductJSON) ToProduct() (domain.Product, error) {
	if p.Price == "" {
		return domain.Product{}, fmt.Errorf("product %q: price is required", p.ID)
	}
	price, err := decimal.NewFromString(p.Price.String())
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %q: parse price: %w", p.ID, err)
	}

	product := domain.Product{
		ID:       p.ID,
		Name:     p.Name,
		Brand:    p.Brand,
		Price:    price,
		Capacity: p.Capacity,
		Type:     p.Type,
		ImageURL: p.ImageURL,
		IsActive: true,
	}
	if p.OldPrice != nil && *p.OldPrice != "" {
		old, err := decimal.NewFromString(p.OldPrice.String())
		if err != nil {
			return domain.Product{}, fmt.Errorf("product %q: parse old_price: %w", p.ID, err)
		}
		product.OldPrice = &old
	}
	if p.Stock != nil {
		product.Stock = domain.StockOf(*p.Stock)
	}

	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, fmt.Errorf("product %q: %w", p.ID, errs[0])
	}
	return product, nil
}

// EncodeProducts сериализует упорядоченный список товаров.
func EncodeProducts(products []domain.Product) ([]byte, error) {
	out := make([]ProductJSON, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return json.Marshal(out)
}

// DecodeProducts разбирает список товаров. Дубликаты ID и любая ошибка формы
// приводят к domain.ErrSnapshotCorrupt.
func DecodeProducts(payload []byte) ([]domain.Product, error) {
	var raw []ProductJSON
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotCorrupt, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected array", domain.ErrSnapshotCorrupt)
	}

	products := make([]domain.Product, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		product, err := item.ToProduct()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotCorrupt, err)
		}
		if _, dup := seen[product.ID]; dup {
			return nil, fmt.Errorf("%w: %v %q", domain.ErrSnapshotCorrupt, domain.ErrDuplicateLine, product.ID)
		}
		seen[product.ID] = struct{}{}
		products = append(products, product)
	}
	return products, nil
}
