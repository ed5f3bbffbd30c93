package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/libreseed/registry/internal/index"
)

// WriteJSON writes data as a status-coded JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads and decodes r's body as JSON into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// Meta carries pagination metadata alongside a list response, matching
// pkg/api/responses.go's Meta shape but built from index.ResultSet counts.
type Meta struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// ListResponse wraps a page of records with their pagination metadata.
type ListResponse struct {
	Records interface{} `json:"records"`
	Meta    Meta        `json:"meta"`
}

// ParsePager reads offset/limit/direction query parameters into an
// index.Pager, defaulting via index.DefaultPager for anything unset.
func ParsePager(r *http.Request) index.Pager {
	pager := index.DefaultPager()
	q := r.URL.Query()

	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			pager.Offset = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pager.Limit = n
		}
	}
	if v := q.Get("direction"); v == "DESC" || v == "desc" {
		pager.Direction = "DESC"
	}
	return pager
}
