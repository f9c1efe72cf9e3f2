package models

import (
	"math"
	"strings"
)

const (
	DefaultLimit = 10
	DefaultPage  = 1
	MaxLimit     = 100
)

// SortableFields are the fields sortBy accepts.
var SortableFields = map[string]bool{
	"createdAt":  true,
	"updatedAt":  true,
	"title":      true,
	"likesCount": true,
	"viewsCount": true,
}

// QueryOptions drive a paginated read.
type QueryOptions struct {
	// SortBy is "field:asc|desc", comma separated for several keys.
	SortBy string
	Limit  int
	Page   int
}

// Normalize replaces non-positive limit/page with defaults and caps limit.
func (o QueryOptions) Normalize() QueryOptions {
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	return o
}

// Skip is the number of records before the requested page. It saturates
// at math.MaxInt64 so a page past any collection size reads as empty.
func (o QueryOptions) Skip() int64 {
	o = o.Normalize()
	before, limit := int64(o.Page-1), int64(o.Limit)
	if before > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return before * limit
}

// SortKey is one parsed sortBy entry; Order is 1 or -1.
type SortKey struct {
	Field string
	Order int
}

// SortKeys parses SortBy, dropping unknown fields. An empty result means
// creation order.
func (o QueryOptions) SortKeys() []SortKey {
	var keys []SortKey
	for _, part := range strings.Split(o.SortBy, ",") {
		field, order, _ := strings.Cut(strings.TrimSpace(part), ":")
		if !SortableFields[field] {
			continue
		}
		dir := 1
		if strings.EqualFold(order, "desc") {
			dir = -1
		}
		keys = append(keys, SortKey{Field: field, Order: dir})
	}
	return keys
}

// Filter narrows a query.
type Filter struct {
	PosterID string
	Tag      string
}

// Page is the paginated envelope shared by every resource kind.
type Page[T any] struct {
	Results      []T   `json:"results"`
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalPages   int   `json:"totalPages"`
	TotalResults int64 `json:"totalResults"`
}

// NewPage shapes results into an envelope for normalized options.
func NewPage[T any](results []T, total int64, opts QueryOptions) *Page[T] {
	opts = opts.Normalize()
	if results == nil {
		results = []T{}
	}
	pages := int((total + int64(opts.Limit) - 1) / int64(opts.Limit))
	return &Page[T]{
		Results:      results,
		Page:         opts.Page,
		Limit:        opts.Limit,
		TotalPages:   pages,
		TotalResults: total,
	}
}
