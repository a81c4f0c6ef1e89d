package pipeline

import (
	"context"
	"fmt"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/connector"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/normalize"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// SyncPrefeitura pulls every dataset the municipal TopSolutions API
// exposes and reconciles it. Failures abort the run; anything already
// written stays, per-entity loads being independent.
func (p *Pipeline) SyncPrefeitura(ctx context.Context, baseURL string) (*store.SyncRun, int, error) {
	const component = "pipeline.sync"

	run, err := p.tracker.Start(ctx, FontePrefeitura)
	if err != nil {
		return nil, 0, err
	}
	pref := connector.NewPrefeitura(p.client, baseURL)

	total := 0
	fail := func(stepErr error) (*store.SyncRun, int, error) {
		p.tracker.Fail(ctx, run, stepErr)
		return run, total, stepErr
	}

	receitas, err := pref.Receitas(ctx, ExercicioReferencia)
	if err != nil {
		return fail(err)
	}
	count, err := p.reconcileReceitas(ctx, FontePrefeitura, connector.PathReceitas, ExercicioReferencia, receitas)
	if err != nil {
		return fail(err)
	}
	total += count

	despesas, err := pref.Despesas(ctx, ExercicioReferencia)
	if err != nil {
		return fail(err)
	}
	if count, err = p.reconcileDespesas(ctx, FontePrefeitura, connector.PathDespesas, ExercicioReferencia, despesas); err != nil {
		return fail(err)
	}
	total += count

	licitacoes, err := pref.Licitacoes(ctx, ExercicioReferencia)
	if err != nil {
		return fail(err)
	}
	if count, err = p.reconcileLicitacoes(ctx, FontePrefeitura, connector.PathLicitacoes, ExercicioReferencia, licitacoes); err != nil {
		return fail(err)
	}
	total += count

	contratos, err := pref.Contratos(ctx, ExercicioReferencia)
	if err != nil {
		return fail(err)
	}
	if count, err = p.reconcileContratos(ctx, FontePrefeitura, connector.PathContratos, ExercicioReferencia, contratos); err != nil {
		return fail(err)
	}
	total += count
	if _, err = p.recomputeFornecedores(ctx); err != nil {
		return fail(err)
	}

	emendas, err := pref.Emendas(ctx, ExercicioReferencia)
	if err != nil {
		return fail(err)
	}
	if count, err = p.reconcileEmendas(ctx, FontePrefeitura, connector.PathEmendas, emendas); err != nil {
		return fail(err)
	}
	total += count

	orcamento, err := pref.Orcamento(ctx, ExercicioReferencia)
	if err != nil {
		return fail(err)
	}
	if count, err = p.reconcileOrcamento(ctx, FontePrefeitura, connector.PathOrcamento, orcamento); err != nil {
		return fail(err)
	}
	total += count

	servidores, probe, err := pref.Servidores(ctx, ExercicioReferencia, 12)
	if err != nil {
		p.logger.Warn(component, "folha de pagamento indisponivel apos %d tentativas: %v", len(probe.Attempts), err)
	} else {
		if count, err = p.reconcileServidores(ctx, FontePrefeitura, connector.PathFolhaPagamento, servidores); err != nil {
			return fail(err)
		}
		total += count
	}

	if err := p.tracker.Succeed(ctx, run, total); err != nil {
		return run, total, err
	}
	return run, total, nil
}

// SyncTCE pulls the audit court's datasets for the reference year. The
// revenue and expenditure aggregates are summarized for comparison, not
// persisted.
func (p *Pipeline) SyncTCE(ctx context.Context, baseURL, codigoMunicipio string) (*store.SyncRun, int, error) {
	run, err := p.tracker.Start(ctx, FonteTCE)
	if err != nil {
		return nil, 0, err
	}
	tce := connector.NewTCE(p.client, baseURL, codigoMunicipio)

	total := 0
	fail := func(stepErr error) (*store.SyncRun, int, error) {
		p.tracker.Fail(ctx, run, stepErr)
		return run, total, stepErr
	}

	licitacoes, err := tce.Licitacoes(ctx, ExercicioReferencia)
	if err != nil {
		return fail(err)
	}
	count, err := p.reconcileTCELicitacoes(ctx, connector.PathTCELicitacoes, licitacoes)
	if err != nil {
		return fail(err)
	}
	total += count

	contratos, err := tce.Contratos(ctx, ExercicioReferencia)
	if err != nil {
		return fail(err)
	}
	if count, err = p.reconcileTCEContratos(ctx, connector.PathTCEContratos, contratos); err != nil {
		return fail(err)
	}
	total += count
	if _, err = p.recomputeFornecedores(ctx); err != nil {
		return fail(err)
	}

	receita, err := tce.Receita(ctx, ExercicioReferencia)
	if err != nil {
		return fail(err)
	}
	total += p.summarizeTCEReceita(receita)

	despesa, err := tce.Despesa(ctx, ExercicioReferencia)
	if err != nil {
		return fail(err)
	}
	total += p.summarizeTCEDespesa(despesa)

	if err := p.tracker.Succeed(ctx, run, total); err != nil {
		return run, total, err
	}
	return run, total, nil
}

// SyncCamara refreshes the council composition from the câmara portal.
func (p *Pipeline) SyncCamara(ctx context.Context, baseURL string) (*store.SyncRun, int, error) {
	run, err := p.tracker.Start(ctx, FonteCamara)
	if err != nil {
		return nil, 0, err
	}
	camara := connector.NewCamara(p.client, baseURL)

	total := 0
	fail := func(stepErr error) (*store.SyncRun, int, error) {
		p.tracker.Fail(ctx, run, stepErr)
		return run, total, stepErr
	}

	vereadores, err := camara.Vereadores(ctx)
	if err != nil {
		return fail(err)
	}
	for _, rec := range vereadores {
		nome := normalize.Text(rec.Row.Nome)
		if nome == "" {
			continue
		}
		vereador := &store.Vereador{
			Nome:    nome,
			Partido: rec.Row.Partido,
			Cargo:   rec.Row.Cargo,
			Mandato: rec.Row.Mandato.String(),
		}
		if err := p.storage.Vereadores.Upsert(ctx, vereador); err != nil {
			return fail(err)
		}
		if err := p.recordProvenance(ctx, "vereador", "vereador:"+nome, FonteCamara, connector.PathVereadores, rec.Raw); err != nil {
			return fail(err)
		}
		total++
	}

	if err := p.tracker.Succeed(ctx, run, total); err != nil {
		return run, total, err
	}
	return run, total, nil
}

// Fonte returns the run-history source tag for a CLI source name.
func Fonte(source string) (string, error) {
	switch source {
	case "prefeitura":
		return FontePrefeitura, nil
	case "camara":
		return FonteCamara, nil
	case "tce":
		return FonteTCE, nil
	case "contexto":
		return FonteContexto, nil
	}
	return "", fmt.Errorf("fonte desconhecida: %s", source)
}
