package main

import (
	"net/http"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/monitor"
)

func (app *application) handleListAlertas(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	data, err := app.store.Alertas.List(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list alertas: "+err.Error())
		return
	}
	respondList(w, r, data, "alertas", "Successfully listed alertas")
}

func (app *application) handleListSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	data, err := app.store.SyncRuns.List(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list sync runs: "+err.Error())
		return
	}
	respondList(w, r, data, "sync-runs", "Successfully listed sync runs")
}

func (app *application) handleListProvenance(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	data, err := app.store.Provenance.List(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list provenance: "+err.Error())
		return
	}
	respondList(w, r, data, "fontes", "Successfully listed provenance records")
}

func (app *application) handleJobMetrics(w http.ResponseWriter, r *http.Request) {
	m := monitor.New(&app.store, &logger.Logger{MinLevel: logger.LevelWarn})
	data, err := m.Metrics(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to compute job metrics: "+err.Error())
		return
	}
	respondList(w, r, data, "job-metrics", "Successfully computed job metrics")
}
