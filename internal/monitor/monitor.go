package monitor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// Each source's metrics consider only its most recent runs; ancient
// history should not dilute a current failure streak.
const runsPorFonte = 30

// StuckRunTimeout is how long a run may sit in 'executando' before the
// sweep declares it dead.
const StuckRunTimeout = 2 * time.Hour

const stuckRunMensagem = "execucao interrompida: tempo limite excedido"

// JobMetrics summarizes the recent run history of one source.
type JobMetrics struct {
	Fonte           string     `json:"fonte"`
	Total           int        `json:"total"`
	Falhas          int        `json:"falhas"`
	TaxaFalha       float64    `json:"taxa_falha"`
	LatenciaMediaMs float64    `json:"latencia_media_ms"`
	UltimoStatus    string     `json:"ultimo_status"`
	UltimaExecucao  *time.Time `json:"ultima_execucao"`
}

// Monitor reads the run history and turns it into per-source health
// metrics and threshold alerts.
type Monitor struct {
	storage *store.Storage
	logger  *logger.Logger
}

func New(storage *store.Storage, log *logger.Logger) *Monitor {
	return &Monitor{storage: storage, logger: log}
}

// Metrics computes per-source figures over each source's most recent
// runs, newest first in the underlying history. Results come sorted by
// failure rate, worst source first, ties broken by source name.
func (m *Monitor) Metrics(ctx context.Context) ([]JobMetrics, error) {
	runs, err := m.storage.SyncRuns.List(ctx, 1000)
	if err != nil {
		return nil, err
	}

	porFonte := map[string][]store.SyncRun{}
	for _, run := range runs {
		if len(porFonte[run.Fonte]) >= runsPorFonte {
			continue
		}
		porFonte[run.Fonte] = append(porFonte[run.Fonte], run)
	}

	metrics := make([]JobMetrics, 0, len(porFonte))
	for fonte, fonteRuns := range porFonte {
		metric := JobMetrics{Fonte: fonte, Total: len(fonteRuns)}
		latencias := []float64{}
		for i, run := range fonteRuns {
			if i == 0 {
				metric.UltimoStatus = run.Status
				inicio := run.IniciadoEm
				metric.UltimaExecucao = &inicio
			}
			if run.Status == store.RunErro {
				metric.Falhas++
			}
			if run.FinalizadoEm != nil {
				latencias = append(latencias, float64(run.FinalizadoEm.Sub(run.IniciadoEm).Milliseconds()))
			}
		}
		metric.TaxaFalha = round2(float64(metric.Falhas) / float64(metric.Total) * 100)
		if len(latencias) > 0 {
			soma := 0.0
			for _, latencia := range latencias {
				soma += latencia
			}
			metric.LatenciaMediaMs = round2(soma / float64(len(latencias)))
		}
		metrics = append(metrics, metric)
	}
	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].TaxaFalha != metrics[j].TaxaFalha {
			return metrics[i].TaxaFalha > metrics[j].TaxaFalha
		}
		return metrics[i].Fonte < metrics[j].Fonte
	})
	return metrics, nil
}

// CheckHealth creates an alert for every source whose failure rate or
// mean latency strictly exceeds the thresholds. Alerts are inserted on
// every check, deliberately not deduplicated: repetition is the signal
// that a source stays unhealthy.
func (m *Monitor) CheckHealth(ctx context.Context, maxTaxaFalha, maxLatenciaMs float64) (int, error) {
	const component = "monitor"

	metrics, err := m.Metrics(ctx)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, metric := range metrics {
		if metric.TaxaFalha > maxTaxaFalha {
			alerta := &store.Alerta{
				Codigo: "job-failure-" + metric.Fonte,
				Titulo: "Taxa de falha elevada em " + metric.Fonte,
				Descricao: fmt.Sprintf("%.2f%% das %d execucoes recentes falharam (limite %.2f%%).",
					metric.TaxaFalha, metric.Total, maxTaxaFalha),
				Severidade: store.SeveridadeAlta,
				CriadoEm:   time.Now(),
			}
			if err := m.storage.Alertas.Insert(ctx, alerta); err != nil {
				return created, err
			}
			created++
			m.logger.Warn(component, "%s: taxa de falha %.2f%%", metric.Fonte, metric.TaxaFalha)
		}
		if metric.LatenciaMediaMs > maxLatenciaMs {
			alerta := &store.Alerta{
				Codigo: "job-latency-" + metric.Fonte,
				Titulo: "Latência elevada em " + metric.Fonte,
				Descricao: fmt.Sprintf("Latencia media de %.0fms nas %d execucoes recentes (limite %.0fms).",
					metric.LatenciaMediaMs, metric.Total, maxLatenciaMs),
				Severidade: store.SeveridadeMedia,
				CriadoEm:   time.Now(),
			}
			if err := m.storage.Alertas.Insert(ctx, alerta); err != nil {
				return created, err
			}
			created++
			m.logger.Warn(component, "%s: latencia media %.0fms", metric.Fonte, metric.LatenciaMediaMs)
		}
	}
	return created, nil
}

// SweepStuck closes runs abandoned in 'executando'. Safe to run on
// every health check.
func (m *Monitor) SweepStuck(ctx context.Context) (int, error) {
	const component = "monitor"

	swept, err := m.storage.SyncRuns.SweepStuck(ctx, time.Now().Add(-StuckRunTimeout), stuckRunMensagem)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		m.logger.Warn(component, "%d execucoes travadas encerradas", swept)
	}
	return swept, nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
