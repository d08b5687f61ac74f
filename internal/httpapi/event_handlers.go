package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/analytics"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// trackEvent принимает клиентские события воронки. add_to_cart порождает
// сам сервер при успешном добавлении, поэтому от клиента он не принимается.
func (h *handler) trackEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondProblem(c, problemBadRequest.WithDetail(err.Error()))
		return
	}

	eventType, err := domain.ParseAnalyticsEventType(strings.TrimSpace(req.Event))
	if err != nil || eventType == domain.AnalyticsAddToCart {
		respondProblem(c, problemValidation.WithDetail("event must be one of page_view, view_cart, start_checkout, complete_purchase"))
		return
	}

	event := domain.AnalyticsEvent{
		Type:       eventType,
		SessionID:  sessionID(c),
		VisitorID:  req.VisitorID,
		Page:       req.Page,
		ProductID:  req.ProductID,
		UserAgent:  c.Request.UserAgent(),
		OccurredAt: h.now().UTC(),
	}
	event.DeviceType = analytics.DeviceType(event.UserAgent)

	if eventType == domain.AnalyticsCompletePurchase {
		if strings.TrimSpace(req.OrderID) == "" {
			respondProblem(c, problemValidation.WithDetail("order_id is required for complete_purchase"))
			return
		}
		event.OrderID = req.OrderID
	}
	if req.OrderTotal != "" {
		total, err := decimal.NewFromString(req.OrderTotal.String())
		if err != nil || total.IsNegative() {
			respondProblem(c, problemValidation.WithDetail("order_total must be a non-negative number"))
			return
		}
		event.OrderTotal = total
	}

	if h.tracker != nil {
		h.tracker.Track(c.Request.Context(), event)
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}
