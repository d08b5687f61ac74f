package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product — снимок товара из каталога. Корзина только читает его и хранит копию.
type Product struct {
	ID       string
	Name     string
	Brand    string
	Price    decimal.Decimal
	OldPrice *decimal.Decimal
	Capacity string
	Type     string
	ImageURL string
	// Stock — потолок доступных единиц. nil означает неограниченный остаток.
	Stock     *int
	IsActive  bool
	CreatedAt time.Time
}

// Unlimited сообщает, что у товара нет ограничения по остатку.
func (p Product) Unlimited() bool {
	return p.Stock == nil
}

// Unavailable истинно для явно заданного остатка <= 0.
func (p Product) Unavailable() bool {
	return p.Stock != nil && *p.Stock <= 0
}

// Validate проверяет контракт товара на границе корзины.
func (p Product) Validate() []error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if p.Price.IsNegative() {
		errs = append(errs, ErrPriceNegative)
	}
	if p.OldPrice != nil && p.OldPrice.IsNegative() {
		errs = append(errs, ErrPriceNegative)
	}
	return errs
}

// StockOf возвращает указатель на копию значения остатка; удобно в тестах и сидерах.
func StockOf(n int) *int {
	return &n
}

// ProductFilter описывает фильтры витрины. Пустая строка и "الكل" означают "все".
type ProductFilter struct {
	Brand    string
	Capacity string
	Type     string
	Inverter InverterFilter
	Page     int
	PageSize int
}

// InverterFilter — фильтр по наличию инвертора в названии модели.
type InverterFilter string

const (
	InverterAny     InverterFilter = ""
	InverterOnly    InverterFilter = "inverter"
	InverterRegular InverterFilter = "regular"
)

// ProductPage — страница результатов каталога.
type ProductPage struct {
	Items    []Product
	Total    int
	Page     int
	PageSize int
}

// HasMore сообщает, что за текущей страницей есть ещё товары.
func (p ProductPage) HasMore() bool {
	return p.Page*p.PageSize < p.Total
}
