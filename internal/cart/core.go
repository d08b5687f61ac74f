// Package cart реализует контейнер состояния корзины: чистые переходы состояния,
// кодек снимка и сервис, владеющий корзинами сессий.
package cart

import (
	"math"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DefaultQuantity — количество по умолчанию при добавлении с карточки товара.
const DefaultQuantity = 1

// Add применяет addToCart к корзине и возвращает новое состояние.
// Исходная корзина не изменяется. При отказе возвращается исходная корзина.
func Add(c domain.Cart, product domain.Product, quantity int) (domain.Cart, domain.AddOutcome, error) {
	if quantity < 1 {
		return c, domain.AddOutcomeRejected, domain.ErrQuantityInvalid
	}
	if product.Unavailable() {
		return c, domain.AddOutcomeRejected, domain.ErrOutOfStock
	}

	idx := c.Find(product.ID)
	current := 0
	if idx >= 0 {
		if quantity == DefaultQuantity {
			return c, domain.AddOutcomeExists, domain.ErrAlreadyInCart
		}
		current = c.Lines[idx].Quantity
	}

	// current+quantity сравнивается без сложения: сумма может переполнить int.
	overflow := quantity > math.MaxInt-current
	if !product.Unlimited() && (overflow || quantity > *product.Stock-current) {
		return c, domain.AddOutcomeRejected, &domain.StockLimitError{
			ProductID: product.ID,
			Stock:     *product.Stock,
			InCart:    current,
			Requested: quantity,
		}
	}
	if overflow {
		return c, domain.AddOutcomeRejected, domain.ErrQuantityInvalid
	}

	next := c.Clone()
	if idx >= 0 {
		next.Lines[idx].Quantity += quantity
		return next, domain.AddOutcomeAdded, nil
	}
	next.Lines = append(next.Lines, domain.CartLine{Product: product, Quantity: quantity})
	return next, domain.AddOutcomeAdded, nil
}

// Remove удаляет позицию товара; отсутствие позиции не ошибка.
func Remove(c domain.Cart, productID string) domain.Cart {
	next := domain.Cart{Lines: make([]domain.CartLine, 0, len(c.Lines))}
	for _, line := range c.Lines {
		if line.Product.ID != productID {
			next.Lines = append(next.Lines, line)
		}
	}
	return next
}

// SetQuantity устанавливает абсолютное количество позиции.
// quantity <= 0 эквивалентно Remove; неизвестный товар оставляет корзину без изменений.
// Потолок берётся из снимка товара, сохранённого в позиции.
func SetQuantity(c domain.Cart, productID string, quantity int) (domain.Cart, error) {
	if quantity <= 0 {
		return Remove(c, productID), nil
	}

	idx := c.Find(productID)
	if idx < 0 {
		return c, nil
	}

	line := c.Lines[idx]
	if !line.Product.Unlimited() && quantity > *line.Product.Stock {
		return c, &domain.StockLimitError{
			ProductID: productID,
			Stock:     *line.Product.Stock,
			InCart:    line.Quantity,
			Requested: quantity,
			Absolute:  true,
		}
	}

	next := c.Clone()
	next.Lines[idx].Quantity = quantity
	return next, nil
}

// Clear возвращает пустую корзину.
func Clear() domain.Cart {
	return domain.Cart{Lines: []domain.CartLine{}}
}
