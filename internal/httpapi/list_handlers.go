package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func (h *handler) getWishlist(c *gin.Context) {
	items, err := h.wishlist.Items(c.Request.Context(), sessionID(c))
	h.respondList(c, http.StatusOK, items, 0, nil, err)
}

func (h *handler) addToWishlist(c *gin.Context) {
	product, ok := h.resolveProduct(c)
	if !ok {
		return
	}
	recorder, notifier := h.notifierFor(c)
	items, err := h.wishlist.Add(c.Request.Context(), sessionID(c), product, notifier)
	h.respondList(c, http.StatusOK, items, 0, recorder.Notices(), err)
}

func (h *handler) removeFromWishlist(c *gin.Context) {
	recorder, notifier := h.notifierFor(c)
	items, err := h.wishlist.Remove(c.Request.Context(), sessionID(c), c.Param("pid"), notifier)
	h.respondList(c, http.StatusOK, items, 0, recorder.Notices(), err)
}

func (h *handler) clearWishlist(c *gin.Context) {
	err := h.wishlist.Clear(c.Request.Context(), sessionID(c))
	h.respondList(c, http.StatusOK, nil, 0, nil, err)
}

func (h *handler) getCompare(c *gin.Context) {
	items, err := h.compare.Items(c.Request.Context(), sessionID(c))
	h.respondList(c, http.StatusOK, items, h.compare.Limit(), nil, err)
}

// addToCompare: полный список — 409, уже добавленный товар — 200 с info-уведомлением.
func (h *handler) addToCompare(c *gin.Context) {
	product, ok := h.resolveProduct(c)
	if !ok {
		return
	}
	recorder, notifier := h.notifierFor(c)
	items, err := h.compare.Add(c.Request.Context(), sessionID(c), product, notifier)

	status := http.StatusOK
	switch {
	case errors.Is(err, domain.ErrCompareFull):
		status, err = http.StatusConflict, nil
	case errors.Is(err, domain.ErrAlreadyInCompare):
		err = nil
	}
	h.respondList(c, status, items, h.compare.Limit(), recorder.Notices(), err)
}

func (h *handler) removeFromCompare(c *gin.Context) {
	recorder, notifier := h.notifierFor(c)
	items, err := h.compare.Remove(c.Request.Context(), sessionID(c), c.Param("pid"), notifier)
	h.respondList(c, http.StatusOK, items, h.compare.Limit(), recorder.Notices(), err)
}

func (h *handler) clearCompare(c *gin.Context) {
	err := h.compare.Clear(c.Request.Context(), sessionID(c))
	h.respondList(c, http.StatusOK, nil, h.compare.Limit(), nil, err)
}

func (h *handler) resolveProduct(c *gin.Context) (domain.Product, bool) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("pid"))
	if err != nil {
		respondError(c, err)
		return domain.Product{}, false
	}
	return product, true
}

func (h *handler) respondList(c *gin.Context, status int, items []domain.Product, limit int, notices []domain.Notice, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, productListDTO{
		Items:   toProductDTOs(items),
		Limit:   limit,
		Notices: toNoticeDTOs(notices),
	})
}
