package dto

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginated(t *testing.T) {
	tests := []struct {
		name       string
		totalCount int64
		size       int
		pageCount  int64
	}{
		{"empty", 0, 10, 0},
		{"exact_pages", 20, 10, 2},
		{"partial_last_page", 21, 10, 3},
		{"single_item", 1, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginated(nil, tt.totalCount, tt.size)
			assert.Equal(t, tt.pageCount, p.PageCount)
			assert.Equal(t, tt.totalCount, p.TotalCount)
		})
	}
}

func TestParsePageQuery(t *testing.T) {
	tests := []struct {
		name string
		url  string
		page int
		size int
	}{
		{"defaults", "/users", 1, 10},
		{"explicit", "/users?page=3&size=25", 3, 25},
		{"non_numeric", "/users?page=abc&size=xyz", 1, 10},
		{"non_positive", "/users?page=0&size=-5", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParsePageQuery(httptest.NewRequest("GET", tt.url, nil))
			assert.Equal(t, tt.page, q.Page)
			assert.Equal(t, tt.size, q.Size)
		})
	}
}

func TestPageQuery_Offset(t *testing.T) {
	assert.Equal(t, 0, PageQuery{Page: 1, Size: 10}.Offset())
	assert.Equal(t, 10, PageQuery{Page: 2, Size: 10}.Offset())
	assert.Equal(t, 50, PageQuery{Page: 3, Size: 25}.Offset())
}
