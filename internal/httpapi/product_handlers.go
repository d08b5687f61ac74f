package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/codec"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func (h *handler) listProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		Brand:    c.Query("brand"),
		Capacity: c.Query("capacity"),
		Type:     c.Query("type"),
		Inverter: catalog.ParseInverter(c.Query("inverter")),
	}

	var ok bool
	if filter.Page, ok = queryInt(c, "page"); !ok {
		return
	}
	if filter.PageSize, ok = queryInt(c, "page_size"); !ok {
		return
	}

	page, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductPageDTO(page))
}

func (h *handler) getProduct(c *gin.Context) {
	product, ok := h.resolveProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, codec.FromProduct(product))
}

func (h *handler) facets(c *gin.Context) {
	facets, err := h.catalog.Facets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFacetsDTO(facets))
}

// queryInt читает необязательный положительный целочисленный параметр; 0 — не задан.
func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		respondProblem(c, problemValidation.WithDetail(key+" must be a positive integer"))
		return 0, false
	}
	return v, true
}
