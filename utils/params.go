package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"folio/errs"
	"folio/models"
)

// ParseQueryOptions reads sortBy, limit and page. Missing or malformed
// numbers fall back to the defaults.
func ParseQueryOptions(r *http.Request) models.QueryOptions {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	return models.QueryOptions{
		SortBy: q.Get("sortBy"),
		Limit:  limit,
		Page:   page,
	}.Normalize()
}

// ParseFilter reads the posterId and tag filters.
func ParseFilter(r *http.Request) models.Filter {
	q := r.URL.Query()
	return models.Filter{
		PosterID: q.Get("posterId"),
		Tag:      q.Get("tag"),
	}
}

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into v. Unknown fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Validation("invalid request body: %v", err)
	}
	return nil
}
