package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// Failure messages longer than this are cut before persisting; portal
// error bodies can run to kilobytes.
const maxMensagemLen = 500

// Tracker records the lifecycle of every ingestion run:
// pendente -> executando -> sucesso | erro.
type Tracker struct {
	storage *store.Storage
	logger  *logger.Logger
}

func NewTracker(storage *store.Storage, log *logger.Logger) *Tracker {
	return &Tracker{storage: storage, logger: log}
}

// Start registers a run for fonte and marks it executando. The returned
// run carries a UUID used to correlate CLI output with stored history.
func (t *Tracker) Start(ctx context.Context, fonte string) (*store.SyncRun, error) {
	const component = "pipeline.tracker"

	run := &store.SyncRun{
		UUID:       uuid.NewString(),
		Fonte:      fonte,
		Status:     store.RunPendente,
		IniciadoEm: time.Now(),
	}
	if err := t.storage.SyncRuns.Insert(ctx, run); err != nil {
		return nil, err
	}
	run.Status = store.RunExecutando
	if err := t.storage.SyncRuns.Update(ctx, run); err != nil {
		return nil, err
	}
	t.logger.Info(component, "run %s (%s) iniciada", run.UUID, fonte)
	return run, nil
}

// Succeed closes the run with the processed record count.
func (t *Tracker) Succeed(ctx context.Context, run *store.SyncRun, registros int) error {
	const component = "pipeline.tracker"

	now := time.Now()
	run.Status = store.RunSucesso
	run.FinalizadoEm = &now
	run.Registros = registros
	if err := t.storage.SyncRuns.Update(ctx, run); err != nil {
		return err
	}
	t.logger.Info(component, "run %s (%s) concluida: %d registros", run.UUID, run.Fonte, registros)
	return nil
}

// Fail closes the run with the error message, truncated. The original
// error always propagates to the caller; a failed run row is never a
// substitute for a returned error.
func (t *Tracker) Fail(ctx context.Context, run *store.SyncRun, cause error) {
	const component = "pipeline.tracker"

	now := time.Now()
	run.Status = store.RunErro
	run.FinalizadoEm = &now
	run.Erros++
	run.Mensagem = truncateRunes(cause.Error(), maxMensagemLen)
	if err := t.storage.SyncRuns.Update(ctx, run); err != nil {
		t.logger.Error(component, "run %s: falha ao registrar erro: %v", run.UUID, err)
		return
	}
	t.logger.Error(component, "run %s (%s) falhou: %v", run.UUID, run.Fonte, cause)
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
