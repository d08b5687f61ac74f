// Package analytics реализует неблокирующий трекер событий витрины и их
// доставку через transactional outbox.
package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	// OutboxEventType — тип сообщения outbox для событий аналитики.
	OutboxEventType = "analytics_event"
	// OutboxAggregateType — агрегат, к которому привязано событие.
	OutboxAggregateType = "session"
)

// eventJSON — формат события в outbox, Kafka и таблице analytics_events.
type eventJSON struct {
	ID          string          `json:"id"`
	EventType   string          `json:"event_type"`
	SessionID   string          `json:"session_id"`
	VisitorID   string          `json:"visitor_id,omitempty"`
	PageURL     string          `json:"page_url,omitempty"`
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	OrderID     string          `json:"order_id,omitempty"`
	OrderTotal  decimal.Decimal `json:"order_total"`
	UserAgent   string          `json:"user_agent,omitempty"`
	DeviceType  string          `json:"device_type,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Encode сериализует событие.
func Encode(e domain.AnalyticsEvent) ([]byte, error) {
	payload, err := json.Marshal(eventJSON{
		ID:          e.ID,
		EventType:   string(e.Type),
		SessionID:   e.SessionID,
		VisitorID:   e.VisitorID,
		PageURL:     e.Page,
		ProductID:   e.ProductID,
		ProductName: e.ProductName,
		OrderID:     e.OrderID,
		OrderTotal:  e.OrderTotal,
		UserAgent:   e.UserAgent,
		DeviceType:  e.DeviceType,
		OccurredAt:  e.OccurredAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode analytics event: %w", err)
	}
	return payload, nil
}

// Decode разбирает событие и проверяет тип.
func Decode(payload []byte) (domain.AnalyticsEvent, error) {
	var raw eventJSON
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.AnalyticsEvent{}, fmt.Errorf("decode analytics event: %w", err)
	}
	eventType, err := domain.ParseAnalyticsEventType(raw.EventType)
	if err != nil {
		return domain.AnalyticsEvent{}, err
	}
	if raw.SessionID == "" {
		return domain.AnalyticsEvent{}, domain.ErrSessionRequired
	}
	return domain.AnalyticsEvent{
		ID:          raw.ID,
		Type:        eventType,
		SessionID:   raw.SessionID,
		VisitorID:   raw.VisitorID,
		Page:        raw.PageURL,
		ProductID:   raw.ProductID,
		ProductName: raw.ProductName,
		OrderID:     raw.OrderID,
		OrderTotal:  raw.OrderTotal,
		UserAgent:   raw.UserAgent,
		DeviceType:  raw.DeviceType,
		OccurredAt:  raw.OccurredAt,
	}, nil
}

// DeviceType грубо классифицирует устройство по User-Agent.
func DeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case ua == "":
		return ""
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return "tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android"):
		return "mobile"
	default:
		return "desktop"
	}
}
