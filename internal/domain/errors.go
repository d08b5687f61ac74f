package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfStock — у товара явно задан остаток <= 0.
	ErrOutOfStock = errors.New("product is currently unavailable")
	// ErrStockLimitReached — в корзине уже весь доступный остаток.
	ErrStockLimitReached = errors.New("stock limit reached")
	// ErrStockLimitExceeded — запрошенное количество больше доступного остатка.
	ErrStockLimitExceeded = errors.New("stock limit exceeded")
	// ErrAlreadyInCart — повторное добавление одной единицы уже лежащего в корзине товара.
	ErrAlreadyInCart = errors.New("product already in cart")
	// ErrQuantityInvalid — количество в позиции должно быть >= 1.
	ErrQuantityInvalid = errors.New("quantity must be greater than zero")
	// ErrDuplicateLine — в корзине две позиции одного товара.
	ErrDuplicateLine = errors.New("duplicate cart line")
	// ErrProductIDRequired — у товара нет идентификатора.
	ErrProductIDRequired = errors.New("product id is required")
	// ErrPriceNegative — цена товара отрицательная.
	ErrPriceNegative = errors.New("product price must be non-negative")
	// ErrProductNotFound возвращается каталогом, если товара нет или он скрыт.
	ErrProductNotFound = errors.New("product not found")
	// ErrSnapshotNotFound — в хранилище нет сохранённого снимка.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrSnapshotCorrupt — сохранённый снимок не проходит проверку формы.
	ErrSnapshotCorrupt = errors.New("snapshot is corrupt")
	// ErrSnapshotPersist — не удалось сохранить снимок; состояние не изменено.
	ErrSnapshotPersist = errors.New("snapshot persist failed")
	// ErrSessionRequired — не передан идентификатор сессии.
	ErrSessionRequired = errors.New("session_id is required")
	// ErrCompareFull — достигнут лимит списка сравнения.
	ErrCompareFull = errors.New("compare list is full")
	// ErrAlreadyInCompare — товар уже в списке сравнения.
	ErrAlreadyInCompare = errors.New("product already in compare list")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// StockLimitError описывает отказ по потолку остатка вместе с доступным запасом.
type StockLimitError struct {
	ProductID string
	Stock     int
	InCart    int
	Requested int
	// Absolute — отказ при установке абсолютного количества (updateQuantity).
	Absolute bool
}

// Available — сколько ещё единиц можно добавить.
func (e *StockLimitError) Available() int {
	if left := e.Stock - e.InCart; left > 0 {
		return left
	}
	return 0
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("stock limit for product %s: stock=%d in_cart=%d requested=%d",
		e.ProductID, e.Stock, e.InCart, e.Requested)
}

// Unwrap сводит ошибку к ErrStockLimitReached или ErrStockLimitExceeded.
func (e *StockLimitError) Unwrap() error {
	if !e.Absolute && e.Available() <= 0 {
		return ErrStockLimitReached
	}
	return ErrStockLimitExceeded
}

// IsStockRejection проверяет, что ошибка — отказ по остатку любого вида.
func IsStockRejection(err error) bool {
	return errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrStockLimitReached) ||
		errors.Is(err, ErrStockLimitExceeded)
}
