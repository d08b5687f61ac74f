package domain

import "github.com/shopspring/decimal"

// AddOutcome — трёхзначный результат добавления товара в корзину.
type AddOutcome string

const (
	// AddOutcomeAdded — строка добавлена или увеличено количество.
	AddOutcomeAdded AddOutcome = "added"
	// AddOutcomeExists — товар уже в корзине, повторное добавление одной единицы игнорируется.
	AddOutcomeExists AddOutcome = "exists"
	// AddOutcomeRejected — отказ (нет в наличии, превышен остаток, некорректное количество).
	AddOutcomeRejected AddOutcome = "rejected"
)

// CartLine — одна позиция корзины: снимок товара и количество (>= 1).
type CartLine struct {
	Product  Product
	Quantity int
}

// Subtotal возвращает price * quantity для позиции.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart — упорядоченный набор позиций; порядок вставки сохраняется для отображения.
type Cart struct {
	Lines []CartLine
}

// TotalItems — сумма количеств, всегда пересчитывается.
func (c Cart) TotalItems() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice — сумма price * quantity по всем позициям.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Find возвращает индекс позиции по ID товара или -1.
func (c Cart) Find(productID string) int {
	for i, line := range c.Lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Line возвращает позицию по ID товара.
func (c Cart) Line(productID string) (CartLine, bool) {
	idx := c.Find(productID)
	if idx < 0 {
		return CartLine{}, false
	}
	return c.Lines[idx], true
}

// Clone возвращает копию с независимым срезом позиций.
func (c Cart) Clone() Cart {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

// ValidateInvariants проверяет: не более одной позиции на товар и количество >= 1.
func (c Cart) ValidateInvariants() []error {
	var errs []error
	seen := make(map[string]struct{}, len(c.Lines))
	for _, line := range c.Lines {
		errs = append(errs, line.Product.Validate()...)
		if line.Quantity < 1 {
			errs = append(errs, ErrQuantityInvalid)
		}
		if _, dup := seen[line.Product.ID]; dup {
			errs = append(errs, ErrDuplicateLine)
		}
		seen[line.Product.ID] = struct{}{}
	}
	return errs
}
