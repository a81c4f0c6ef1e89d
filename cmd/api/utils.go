package main

import (
	"net/http"
	"strconv"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// listOptions reads limit/offset/order query parameters. Invalid values
// fall back to the store defaults instead of erroring.
func listOptions(r *http.Request) store.ListOptions {
	opts := store.ListOptions{}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		opts.Offset = offset
	}
	opts.OrderBy = r.URL.Query().Get("order")
	return opts
}

func queryInt(r *http.Request, name string, fallback int) int {
	parsed, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return parsed
}
