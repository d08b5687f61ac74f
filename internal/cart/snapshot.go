package cart

import (
	"encoding/json"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/codec"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type lineJSON struct {
	Product  codec.ProductJSON `json:"product"`
	Quantity int               `json:"quantity"`
}

// EncodeSnapshot сериализует корзину в JSON-массив {product, quantity}.
func EncodeSnapshot(c domain.Cart) ([]byte, error) {
	lines := make([]lineJSON, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, lineJSON{Product: codec.FromProduct(line.Product), Quantity: line.Quantity})
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return payload, nil
}

// DecodeSnapshot разбирает снимок и проверяет инварианты корзины.
// Отсутствующая цена позиции читается как 0, как её показывала витрина.
// Любое другое нарушение формы возвращает ошибку, обёрнутую в domain.ErrSnapshotCorrupt.
func DecodeSnapshot(payload []byte) (domain.Cart, error) {
	var lines []lineJSON
	if err := json.Unmarshal(payload, &lines); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", domain.ErrSnapshotCorrupt, err)
	}
	if lines == nil {
		return domain.Cart{}, fmt.Errorf("%w: expected array", domain.ErrSnapshotCorrupt)
	}

	c := domain.Cart{Lines: make([]domain.CartLine, 0, len(lines))}
	for i, line := range lines {
		if line.Product.Price == "" {
			line.Product.Price = "0"
		}
		product, err := line.Product.ToProduct()
		if err != nil {
			return domain.Cart{}, fmt.Errorf("%w: line %d: %v", domain.ErrSnapshotCorrupt, i, err)
		}
		c.Lines = append(c.Lines, domain.CartLine{Product: product, Quantity: line.Quantity})
	}

	if errs := c.ValidateInvariants(); len(errs) > 0 {
		return domain.Cart{}, fmt.Errorf("%w: %v", domain.ErrSnapshotCorrupt, errs[0])
	}
	return c, nil
}
