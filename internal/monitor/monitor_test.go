package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

func testMonitor() (*Monitor, *store.Storage) {
	storage := store.NewMemory()
	return New(storage, &logger.Logger{MinLevel: logger.LevelError}), storage
}

func insertRun(t *testing.T, storage *store.Storage, fonte, status string, iniciado time.Time, duracao time.Duration) {
	t.Helper()
	run := &store.SyncRun{Fonte: fonte, Status: status, IniciadoEm: iniciado}
	if status == store.RunSucesso || status == store.RunErro {
		fim := iniciado.Add(duracao)
		run.FinalizadoEm = &fim
	}
	if err := storage.SyncRuns.Insert(context.Background(), run); err != nil {
		t.Fatalf("insert run: %v", err)
	}
}

func TestMetricsFailureRate(t *testing.T) {
	ctx := context.Background()
	m, storage := testMonitor()
	base := time.Now().Add(-time.Hour)

	insertRun(t, storage, "prefeitura_ts", store.RunErro, base, time.Second)
	insertRun(t, storage, "prefeitura_ts", store.RunErro, base.Add(time.Minute), time.Second)
	insertRun(t, storage, "prefeitura_ts", store.RunSucesso, base.Add(2*time.Minute), time.Second)

	metrics, err := m.Metrics(ctx)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("metrics = %d", len(metrics))
	}
	metric := metrics[0]
	if metric.Fonte != "prefeitura_ts" || metric.Total != 3 || metric.Falhas != 2 {
		t.Errorf("metric = %+v", metric)
	}
	if metric.TaxaFalha != 66.67 {
		t.Errorf("taxa de falha = %v, want 66.67", metric.TaxaFalha)
	}
	if metric.UltimoStatus != store.RunSucesso {
		t.Errorf("ultimo status = %q", metric.UltimoStatus)
	}
	if metric.LatenciaMediaMs != 1000 {
		t.Errorf("latencia media = %v", metric.LatenciaMediaMs)
	}
}

func TestMetricsOrderedByFailureRate(t *testing.T) {
	ctx := context.Background()
	m, storage := testMonitor()
	base := time.Now().Add(-time.Hour)

	// Alphabetical order would put the healthy source first.
	insertRun(t, storage, "aaa_fonte", store.RunSucesso, base, time.Second)
	insertRun(t, storage, "mmm_fonte", store.RunErro, base, time.Second)
	insertRun(t, storage, "mmm_fonte", store.RunSucesso, base.Add(time.Minute), time.Second)
	insertRun(t, storage, "zzz_fonte", store.RunErro, base, time.Second)

	metrics, err := m.Metrics(ctx)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if len(metrics) != 3 {
		t.Fatalf("metrics = %d", len(metrics))
	}
	want := []string{"zzz_fonte", "mmm_fonte", "aaa_fonte"}
	for i, fonte := range want {
		if metrics[i].Fonte != fonte {
			t.Errorf("metrics[%d].Fonte = %q, want %q (taxa %v)", i, metrics[i].Fonte, fonte, metrics[i].TaxaFalha)
		}
	}
}

func TestMetricsCapPerFonte(t *testing.T) {
	ctx := context.Background()
	m, storage := testMonitor()
	base := time.Now().Add(-24 * time.Hour)

	// 5 old failures pushed out of the window by 30 newer successes.
	for i := 0; i < 5; i++ {
		insertRun(t, storage, "tce_rn", store.RunErro, base.Add(time.Duration(i)*time.Minute), time.Second)
	}
	for i := 0; i < 30; i++ {
		insertRun(t, storage, "tce_rn", store.RunSucesso, base.Add(time.Duration(10+i)*time.Minute), time.Second)
	}

	metrics, err := m.Metrics(ctx)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("metrics = %d", len(metrics))
	}
	if metrics[0].Total != 30 || metrics[0].Falhas != 0 || metrics[0].TaxaFalha != 0 {
		t.Errorf("metric = %+v", metrics[0])
	}
}

func TestCheckHealthFailureAlert(t *testing.T) {
	ctx := context.Background()
	m, storage := testMonitor()
	base := time.Now().Add(-time.Hour)

	insertRun(t, storage, "prefeitura_ts", store.RunErro, base, time.Second)
	insertRun(t, storage, "prefeitura_ts", store.RunErro, base.Add(time.Minute), time.Second)
	insertRun(t, storage, "prefeitura_ts", store.RunSucesso, base.Add(2*time.Minute), time.Second)

	created, err := m.CheckHealth(ctx, 10, 1e9)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want exactly one alert", created)
	}
	alertas, _ := storage.Alertas.List(ctx, 100)
	if len(alertas) != 1 || alertas[0].Codigo != "job-failure-prefeitura_ts" {
		t.Errorf("alertas = %+v", alertas)
	}
	if alertas[0].Severidade != store.SeveridadeAlta {
		t.Errorf("severidade = %q", alertas[0].Severidade)
	}
}

func TestCheckHealthThresholdIsStrict(t *testing.T) {
	ctx := context.Background()
	m, storage := testMonitor()
	base := time.Now().Add(-time.Hour)

	// 1 failure in 10 runs: exactly 10%, must not fire at limit 10.
	insertRun(t, storage, "camara_ts", store.RunErro, base, time.Second)
	for i := 1; i < 10; i++ {
		insertRun(t, storage, "camara_ts", store.RunSucesso, base.Add(time.Duration(i)*time.Minute), time.Second)
	}

	created, err := m.CheckHealth(ctx, 10, 1e9)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d, want 0 at the exact threshold", created)
	}
}

func TestCheckHealthLatencyAlert(t *testing.T) {
	ctx := context.Background()
	m, storage := testMonitor()
	base := time.Now().Add(-time.Hour)

	insertRun(t, storage, "tce_rn", store.RunSucesso, base, 5*time.Second)
	insertRun(t, storage, "tce_rn", store.RunSucesso, base.Add(time.Minute), 5*time.Second)

	created, err := m.CheckHealth(ctx, 100, 1000)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d", created)
	}
	alertas, _ := storage.Alertas.List(ctx, 100)
	if alertas[0].Codigo != "job-latency-tce_rn" || alertas[0].Severidade != store.SeveridadeMedia {
		t.Errorf("alerta = %+v", alertas[0])
	}
}

func TestCheckHealthAccumulatesAcrossChecks(t *testing.T) {
	ctx := context.Background()
	m, storage := testMonitor()
	base := time.Now().Add(-time.Hour)

	insertRun(t, storage, "prefeitura_ts", store.RunErro, base, time.Second)

	if _, err := m.CheckHealth(ctx, 10, 1e9); err != nil {
		t.Fatalf("first check: %v", err)
	}
	if _, err := m.CheckHealth(ctx, 10, 1e9); err != nil {
		t.Fatalf("second check: %v", err)
	}
	alertas, _ := storage.Alertas.List(ctx, 100)
	if len(alertas) != 2 {
		t.Errorf("alertas = %d, repeated checks should stack", len(alertas))
	}
}

func TestSweepStuckIdempotent(t *testing.T) {
	ctx := context.Background()
	m, storage := testMonitor()

	insertRun(t, storage, "prefeitura_ts", store.RunExecutando, time.Now().Add(-3*time.Hour), 0)
	insertRun(t, storage, "tce_rn", store.RunExecutando, time.Now().Add(-time.Minute), 0)

	swept, err := m.SweepStuck(ctx)
	if err != nil {
		t.Fatalf("SweepStuck: %v", err)
	}
	if swept != 1 {
		t.Fatalf("swept = %d", swept)
	}

	swept, err = m.SweepStuck(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if swept != 0 {
		t.Errorf("second sweep swept = %d", swept)
	}

	runs, _ := storage.SyncRuns.List(ctx, 10)
	for _, run := range runs {
		switch run.Fonte {
		case "prefeitura_ts":
			if run.Status != store.RunErro || run.FinalizadoEm == nil || run.Mensagem == "" {
				t.Errorf("stuck run not closed: %+v", run)
			}
		case "tce_rn":
			if run.Status != store.RunExecutando {
				t.Errorf("recent run should be untouched: %+v", run)
			}
		}
	}
}
