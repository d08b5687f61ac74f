package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ContentTypeProblemJSON — media type ответов об ошибках (RFC 7807).
const ContentTypeProblemJSON = "application/problem+json"

const (
	TypeValidation  = "/problems/validation-error"
	TypeNotFound    = "/problems/not-found"
	TypeConflict    = "/problems/conflict"
	TypeBadRequest  = "/problems/bad-request"
	TypeUnavailable = "/problems/storage-unavailable"
	TypeInternal    = "/problems/internal-error"
)

// Problem — тело ошибки в формате Problem Details.
type Problem struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p Problem) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail возвращает копию с уточнением.
func (p Problem) WithDetail(detail string) Problem {
	p.Detail = detail
	return p
}

// WithExtension возвращает копию с дополнительным полем.
func (p Problem) WithExtension(key string, value any) Problem {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

var (
	problemValidation = Problem{Type: TypeValidation, Title: "Validation Error", Status: http.StatusBadRequest}
	problemBadRequest = Problem{Type: TypeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest}
	problemNotFound   = Problem{Type: TypeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound}
	problemConflict   = Problem{Type: TypeConflict, Title: "Conflict", Status: http.StatusConflict}
	problemStorage    = Problem{Type: TypeUnavailable, Title: "Storage Unavailable", Status: http.StatusServiceUnavailable}
	problemInternal   = Problem{Type: TypeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}
)

// problemFor сводит доменную ошибку к Problem.
func problemFor(err error) Problem {
	var problem Problem
	if errors.As(err, &problem) {
		return problem
	}

	var limit *domain.StockLimitError
	switch {
	case errors.Is(err, domain.ErrSessionRequired),
		errors.Is(err, domain.ErrQuantityInvalid),
		errors.Is(err, domain.ErrProductIDRequired):
		return problemValidation.WithDetail(err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		return problemNotFound.WithDetail(err.Error())
	case errors.As(err, &limit):
		return problemConflict.WithDetail(err.Error()).
			WithExtension("available", limit.Available()).
			WithExtension("stock", limit.Stock)
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrCompareFull):
		return problemConflict.WithDetail(err.Error())
	case errors.Is(err, domain.ErrSnapshotPersist):
		return problemStorage.WithDetail(err.Error())
	default:
		return problemInternal
	}
}

// respondProblem пишет Problem и прерывает цепочку обработчиков.
func respondProblem(c *gin.Context, problem Problem) {
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

func respondError(c *gin.Context, err error) {
	problem := problemFor(err)
	if problem.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	respondProblem(c, problem)
}
