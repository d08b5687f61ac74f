package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AnalyticsEventType — тип события воронки витрины.
type AnalyticsEventType string

const (
	AnalyticsPageView         AnalyticsEventType = "page_view"
	AnalyticsAddToCart        AnalyticsEventType = "add_to_cart"
	AnalyticsViewCart         AnalyticsEventType = "view_cart"
	AnalyticsStartCheckout    AnalyticsEventType = "start_checkout"
	AnalyticsCompletePurchase AnalyticsEventType = "complete_purchase"
)

// Valid проверяет, что тип события поддерживается.
func (t AnalyticsEventType) Valid() bool {
	switch t {
	case AnalyticsPageView, AnalyticsAddToCart, AnalyticsViewCart,
		AnalyticsStartCheckout, AnalyticsCompletePurchase:
		return true
	default:
		return false
	}
}

// ParseAnalyticsEventType разбирает тип события из внешнего ввода.
func ParseAnalyticsEventType(raw string) (AnalyticsEventType, error) {
	t := AnalyticsEventType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unsupported analytics event %q", raw)
	}
	return t, nil
}

// AnalyticsEvent — событие аналитики, отправляемое во внешний трекер.
type AnalyticsEvent struct {
	ID          string
	Type        AnalyticsEventType
	SessionID   string
	VisitorID   string
	Page        string
	ProductID   string
	ProductName string
	OrderID     string
	OrderTotal  decimal.Decimal
	UserAgent   string
	DeviceType  string
	OccurredAt  time.Time
}
