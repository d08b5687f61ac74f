// Package httpapi — публичный HTTP API витрины поверх gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/compare"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/notify"
	"github.com/vladislavdragonenkov/storefront/internal/session"
	"github.com/vladislavdragonenkov/storefront/internal/wishlist"
)

// Catalog — каталог с фасетами фильтров; реализуют catalog.Memory и postgres-каталог.
type Catalog interface {
	domain.Catalog
	Facets(ctx context.Context) (catalog.Facets, error)
}

// Options — зависимости HTTP API.
type Options struct {
	Cart     *cart.Service
	Wishlist *wishlist.Service
	Compare  *compare.Service
	Catalog  Catalog
	Tracker  domain.AnalyticsTracker
	Metrics  *metrics.HTTPMetrics
	Logger   *log.Entry
	// ServiceName включает otelgin-middleware, если не пустой.
	ServiceName string
	Now         func() time.Time
}

type handler struct {
	cart     *cart.Service
	wishlist *wishlist.Service
	compare  *compare.Service
	catalog  Catalog
	tracker  domain.AnalyticsTracker
	logger   *log.Entry
	now      func() time.Time
}

// NewRouter собирает gin.Engine со всеми маршрутами API.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	logger = logger.WithField("component", "http_api")
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	h := &handler{
		cart:     opts.Cart,
		wishlist: opts.Wishlist,
		compare:  opts.Compare,
		catalog:  opts.Catalog,
		tracker:  opts.Tracker,
		logger:   logger,
		now:      now,
	}

	router := gin.New()
	if opts.ServiceName != "" {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	router.Use(recovery(logger), requestLog(logger, opts.Metrics))
	router.NoRoute(func(c *gin.Context) {
		respondProblem(c, problemNotFound.WithDetail("route not found"))
	})

	api := router.Group("/api/v1")
	api.POST("/sessions", h.createSession)
	api.GET("/products", h.listProducts)
	api.GET("/products/:pid", h.getProduct)
	api.GET("/facets", h.facets)

	sess := api.Group("/sessions/:sid", requireSession())
	sess.GET("/cart", h.getCart)
	sess.DELETE("/cart", h.clearCart)
	sess.POST("/cart/items", h.addCartItem)
	sess.PATCH("/cart/items/:pid", h.updateCartItem)
	sess.DELETE("/cart/items/:pid", h.removeCartItem)

	sess.GET("/wishlist", h.getWishlist)
	sess.DELETE("/wishlist", h.clearWishlist)
	sess.PUT("/wishlist/:pid", h.addToWishlist)
	sess.DELETE("/wishlist/:pid", h.removeFromWishlist)

	sess.GET("/compare", h.getCompare)
	sess.DELETE("/compare", h.clearCompare)
	sess.PUT("/compare/:pid", h.addToCompare)
	sess.DELETE("/compare/:pid", h.removeFromCompare)

	sess.POST("/events", h.trackEvent)

	return router
}

// notifierFor возвращает notifier запроса: уведомления попадают и в ответ, и в лог.
func (h *handler) notifierFor(c *gin.Context) (*notify.Recorder, domain.Notifier) {
	recorder := notify.NewRecorder()
	logNotifier := notify.NewLogNotifier(h.logger.WithField("session_id", sessionID(c)))
	return recorder, notify.Fanout{recorder, logNotifier}
}

func (h *handler) createSession(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"session_id": session.NewID()})
}
