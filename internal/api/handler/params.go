package handler

import (
	"net/http"
	"strconv"
)

// queryLimit parses the optional limit query parameter. Zero means the
// service default.
func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
