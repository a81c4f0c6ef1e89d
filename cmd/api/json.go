package main

import (
	"encoding/json"
	"net/http"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/response"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	return writeJSON(w, status, &response.ErrorResponse{Error: message})
}

// respondList writes a list result as the JSON envelope or, with
// ?export=csv, as a semicolon-separated attachment.
func respondList[T any](w http.ResponseWriter, r *http.Request, rows []T, filename, message string) {
	if r.URL.Query().Get("export") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		if err := store.WriteCSV(w, rows); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to write csv: "+err.Error())
		}
		return
	}

	resp := &response.APIResponse[[]T]{
		Success: true,
		Data:    rows,
		Message: message,
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
