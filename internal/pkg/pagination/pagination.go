// internal/pkg/pagination/pagination.go
package pagination

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Request carries list query parameters bound from the query string
type Request struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order,default=desc"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Normalize clamps page and limit to sane bounds and lower-cases the sort direction
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	if strings.ToLower(r.SortOrder) == "asc" {
		r.SortOrder = "asc"
	} else {
		r.SortOrder = "desc"
	}
	return r
}

// Offset is the number of rows skipped for the requested page
func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

// OrderClause builds "column direction" when sortBy is one of allowed, otherwise uses fallback
func (r Request) OrderClause(allowed map[string]string, fallback string) string {
	column, ok := allowed[r.SortBy]
	if !ok {
		column = fallback
	}
	return column + " " + strings.ToUpper(r.SortOrder)
}

// New computes page metadata for total rows
func New(r Request, total int64) Pagination {
	totalPages := 0
	if r.Limit > 0 {
		totalPages = int((total + int64(r.Limit) - 1) / int64(r.Limit))
	}
	return Pagination{
		Page:       r.Page,
		Limit:      r.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    r.Page < totalPages,
		HasPrev:    r.Page > 1,
	}
}
