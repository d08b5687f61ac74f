package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// maxRequestQuantity ограничивает количество в одном запросе, чтобы суммы
// позиций и итогов корзины не подходили к границе int.
const maxRequestQuantity = 10000

func (h *handler) getCart(c *gin.Context) {
	snapshot, err := h.cart.View(c.Request.Context(), sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: toCartDTO(snapshot), Notices: []noticeDTO{}})
}

// addCartItem добавляет товар из каталога. Отказ по остатку возвращает 409
// с текущей корзиной и уведомлением; повторное добавление — 200 с outcome=exists.
func (h *handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondProblem(c, problemBadRequest.WithDetail(err.Error()))
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondProblem(c, problemValidation.WithDetail("product_id is required"))
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 || quantity > maxRequestQuantity {
		respondError(c, domain.ErrQuantityInvalid)
		return
	}

	ctx := c.Request.Context()
	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	recorder, notifier := h.notifierFor(c)
	var (
		outcome  domain.AddOutcome
		snapshot domain.Cart
	)
	err = h.cart.Do(ctx, sessionID(c), notifier, func(container *cart.Container) error {
		var addErr error
		outcome, addErr = container.Add(ctx, product, quantity)
		snapshot = container.Cart()
		return addErr
	})

	response := addToCartResponse{
		Outcome: string(outcome),
		Cart:    toCartDTO(snapshot),
		Notices: toNoticeDTOs(recorder.Notices()),
	}
	status := http.StatusOK
	var limit *domain.StockLimitError
	switch {
	case err == nil, errors.Is(err, domain.ErrAlreadyInCart):
	case domain.IsStockRejection(err):
		status = http.StatusConflict
		if errors.As(err, &limit) {
			available := limit.Available()
			response.Available = &available
		}
	default:
		respondError(c, err)
		return
	}

	c.JSON(status, response)
}

func (h *handler) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondProblem(c, problemBadRequest.WithDetail(err.Error()))
		return
	}
	if req.Quantity == nil {
		respondProblem(c, problemValidation.WithDetail("quantity is required"))
		return
	}
	if *req.Quantity > maxRequestQuantity {
		respondError(c, domain.ErrQuantityInvalid)
		return
	}

	productID := c.Param("pid")
	h.mutateCart(c, func(container *cart.Container) error {
		return container.UpdateQuantity(c.Request.Context(), productID, *req.Quantity)
	})
}

func (h *handler) removeCartItem(c *gin.Context) {
	productID := c.Param("pid")
	h.mutateCart(c, func(container *cart.Container) error {
		return container.Remove(c.Request.Context(), productID)
	})
}

func (h *handler) clearCart(c *gin.Context) {
	h.mutateCart(c, func(container *cart.Container) error {
		return container.Clear(c.Request.Context())
	})
}

// mutateCart выполняет мутацию и отвечает состоянием корзины после неё.
// Отказ по остатку — 409 с неизменённой корзиной.
func (h *handler) mutateCart(c *gin.Context, fn func(*cart.Container) error) {
	recorder, notifier := h.notifierFor(c)
	var snapshot domain.Cart
	err := h.cart.Do(c.Request.Context(), sessionID(c), notifier, func(container *cart.Container) error {
		mutateErr := fn(container)
		snapshot = container.Cart()
		return mutateErr
	})

	status := http.StatusOK
	switch {
	case err == nil:
	case domain.IsStockRejection(err):
		status = http.StatusConflict
	default:
		respondError(c, err)
		return
	}
	c.JSON(status, cartResponse{Cart: toCartDTO(snapshot), Notices: toNoticeDTOs(recorder.Notices())})
}
