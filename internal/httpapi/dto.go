package httpapi

import (
	"encoding/json"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/codec"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type noticeDTO struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type cartLineDTO struct {
	Product  codec.ProductJSON `json:"product"`
	Quantity int               `json:"quantity"`
	Subtotal json.Number       `json:"subtotal"`
}

type cartDTO struct {
	Lines      []cartLineDTO `json:"lines"`
	TotalItems int           `json:"total_items"`
	TotalPrice json.Number   `json:"total_price"`
}

type cartResponse struct {
	Cart    cartDTO     `json:"cart"`
	Notices []noticeDTO `json:"notices"`
}

type addToCartResponse struct {
	Outcome string `json:"outcome"`
	// Available — сколько ещё единиц можно добавить; только при отказе по остатку.
	Available *int        `json:"available,omitempty"`
	Cart      cartDTO     `json:"cart"`
	Notices   []noticeDTO `json:"notices"`
}

type productListDTO struct {
	Items   []codec.ProductJSON `json:"items"`
	Limit   int                 `json:"limit,omitempty"`
	Notices []noticeDTO         `json:"notices"`
}

type productPageDTO struct {
	Items    []codec.ProductJSON `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	HasMore  bool                `json:"has_more"`
}

type facetsDTO struct {
	Brands     []string `json:"brands"`
	Capacities []string `json:"capacities"`
	Types      []string `json:"types"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

type eventRequest struct {
	Event      string      `json:"event"`
	Page       string      `json:"page"`
	VisitorID  string      `json:"visitor_id"`
	ProductID  string      `json:"product_id"`
	OrderID    string      `json:"order_id"`
	OrderTotal json.Number `json:"order_total"`
}

func toCartDTO(c domain.Cart) cartDTO {
	lines := make([]cartLineDTO, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, cartLineDTO{
			Product:  codec.FromProduct(line.Product),
			Quantity: line.Quantity,
			Subtotal: json.Number(line.Subtotal().String()),
		})
	}
	return cartDTO{
		Lines:      lines,
		TotalItems: c.TotalItems(),
		TotalPrice: json.Number(c.TotalPrice().String()),
	}
}

func toNoticeDTOs(notices []domain.Notice) []noticeDTO {
	out := make([]noticeDTO, 0, len(notices))
	for _, n := range notices {
		out = append(out, noticeDTO{Level: string(n.Level), Message: n.Message})
	}
	return out
}

func toProductDTOs(products []domain.Product) []codec.ProductJSON {
	out := make([]codec.ProductJSON, 0, len(products))
	for _, p := range products {
		out = append(out, codec.FromProduct(p))
	}
	return out
}

func toProductPageDTO(page domain.ProductPage) productPageDTO {
	return productPageDTO{
		Items:    toProductDTOs(page.Items),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		HasMore:  page.HasMore(),
	}
}

func toFacetsDTO(f catalog.Facets) facetsDTO {
	nonNil := func(v []string) []string {
		if v == nil {
			return []string{}
		}
		return v
	}
	return facetsDTO{
		Brands:     nonNil(f.Brands),
		Capacities: nonNil(f.Capacities),
		Types:      nonNil(f.Types),
	}
}
