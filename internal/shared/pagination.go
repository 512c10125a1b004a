package shared

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Sort orders accepted by list endpoints.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// ListParams are the standard list query parameters.
type ListParams struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
	Search    string
}

// Values encodes the non-empty parameters as a query string.
func (p ListParams) Values() url.Values {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.SortBy != "" {
		values.Set("sortBy", p.SortBy)
	}
	if order := strings.ToUpper(strings.TrimSpace(p.SortOrder)); order == SortAsc || order == SortDesc {
		values.Set("sortOrder", order)
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		values.Set("search", s)
	}
	return values
}

// ParseListParams reads list parameters from a query string.
func ParseListParams(values url.Values) ListParams {
	page, _ := strconv.Atoi(values.Get("page"))
	size, _ := strconv.Atoi(values.Get("pageSize"))
	return ListParams{
		Page:      page,
		PageSize:  size,
		SortBy:    values.Get("sortBy"),
		SortOrder: values.Get("sortOrder"),
		Search:    values.Get("search"),
	}
}

// Pagination contains metadata and the rows of a paginated listing.
type Pagination[T any] struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
	Data       []T `json:"data"`
}

// Page is the list response envelope.
type Page[T any] struct {
	Pagination Pagination[T] `json:"pagination"`
}

// NewPagination computes pagination metadata.
func NewPagination[T any](page, pageSize, total int, data []T) Pagination[T] {
	if pageSize <= 0 {
		pageSize = 10
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	if data == nil {
		data = []T{}
	}
	return Pagination[T]{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: totalPages, Data: data}
}
