package dto

import (
	"net/http"
	"strconv"
)

// Response is the success envelope: every 2xx body is {"data": ...}.
type Response struct {
	Data any `json:"data"`
}

// ErrorResponse mirrors internal/apperror.Error on the wire.
type ErrorResponse struct {
	StatusCode  int    `json:"statusCode"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

// Paginated is the list payload placed inside the data envelope.
type Paginated struct {
	Data       any   `json:"data"`
	PageCount  int64 `json:"pageCount"`
	TotalCount int64 `json:"totalCount"`
}

func NewPaginated(data any, totalCount int64, size int) Paginated {
	pageCount := totalCount / int64(size)
	if totalCount%int64(size) != 0 {
		pageCount++
	}
	return Paginated{Data: data, PageCount: pageCount, TotalCount: totalCount}
}

type PageQuery struct {
	Page int
	Size int
}

// ParsePageQuery reads page/size query params with the API defaults
// (page 1, size 10). Non-numeric or non-positive values fall back to the
// defaults.
func ParsePageQuery(r *http.Request) PageQuery {
	q := PageQuery{Page: 1, Size: 10}

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		q.Page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && size > 0 {
		q.Size = size
	}
	return q
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Size
}
