package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/connector"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// LoadLegacySnapshot ingests the frozen portal export under dataDir.
// Each entity family loads independently: a bad file is skipped with a
// warning while the others land. When exportsDir is non-empty the
// manager CSV is applied at the end.
func (p *Pipeline) LoadLegacySnapshot(ctx context.Context, dataDir, exportsDir string) (*store.SyncRun, int, error) {
	const component = "pipeline.legacy"

	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		return nil, 0, fmt.Errorf("diretorio de dados inacessivel: %s", dataDir)
	}

	run, err := p.tracker.Start(ctx, FonteLegacy)
	if err != nil {
		return nil, 0, err
	}

	total := 0
	fail := func(stepErr error) (*store.SyncRun, int, error) {
		p.tracker.Fail(ctx, run, stepErr)
		return run, total, stepErr
	}

	count, err := p.seedVereadores(ctx)
	if err != nil {
		return fail(err)
	}
	total += count

	if rows, ok := p.readSnapshotRows(dataDir, FileReceitas); ok {
		count, err = p.reconcileReceitas(ctx, FonteLegacy, FileReceitas, ExercicioReferencia, connector.DecodeRows[connector.ReceitaRow](rows))
		if err != nil {
			return fail(err)
		}
		total += count
	}

	if rows, ok := p.readSnapshotRows(dataDir, FileDespesas); ok {
		count, err = p.reconcileDespesas(ctx, FonteLegacy, FileDespesas, ExercicioReferencia, connector.DecodeRows[connector.DespesaRow](rows))
		if err != nil {
			return fail(err)
		}
		total += count
	}

	if rows, ok := p.readSnapshotRows(dataDir, FileLicitacoes); ok {
		count, err = p.reconcileLicitacoes(ctx, FonteLegacy, FileLicitacoes, ExercicioReferencia, connector.DecodeRows[connector.LicitacaoRow](rows))
		if err != nil {
			return fail(err)
		}
		total += count
	}

	if rows, ok := p.readSnapshotRows(dataDir, FileContratos); ok {
		count, err = p.reconcileContratos(ctx, FonteLegacy, FileContratos, ExercicioReferencia, connector.DecodeRows[connector.ContratoRow](rows))
		if err != nil {
			return fail(err)
		}
		total += count
		if _, err = p.recomputeFornecedores(ctx); err != nil {
			return fail(err)
		}
	}

	if meses, ok := p.readServidoresMensais(dataDir); ok {
		count, err = p.reconcileServidoresLegados(ctx, meses)
		if err != nil {
			return fail(err)
		}
		total += count
	}

	if exportsDir != "" {
		count, err = p.loadGestores(ctx, exportsDir)
		if err != nil {
			return fail(err)
		}
		total += count
	}

	if err := p.tracker.Succeed(ctx, run, total); err != nil {
		return run, total, err
	}
	p.logger.Info(component, "snapshot legado carregado: %d registros", total)
	return run, total, nil
}

// reconcileServidoresLegados picks the most recent month in the legacy
// payroll file and loads its rows. Months before the latest exist in
// the file but represent superseded competences.
func (p *Pipeline) reconcileServidoresLegados(ctx context.Context, meses []connector.ServidorMes) (int, error) {
	const component = "pipeline.legacy"

	latest := -1
	for i, mes := range meses {
		if latest == -1 || mes.Mes > meses[latest].Mes {
			latest = i
		}
	}
	if latest == -1 {
		p.logger.Warn(component, "arquivo de folha sem competencias")
		return 0, nil
	}
	p.logger.Info(component, "folha de pagamento: usando competencia %d/%d", meses[latest].Mes, ExercicioReferencia)
	recs := connector.DecodeRows[connector.ServidorRow](meses[latest].Payload.Data)
	return p.reconcileServidores(ctx, FonteLegacy, FileServidores, recs)
}

// The 2025-2028 council composition, seeded during the legacy load; the
// câmara portal sync updates it when reachable.
var vereadoresSeed = []store.Vereador{
	{Nome: "ADRIANO DA CAMARA", Partido: "PSDB", Cargo: "Presidente", Mandato: "2025-2028"},
	{Nome: "BETINHO DE PIRANGI", Partido: "MDB", Cargo: "Vice-Presidente", Mandato: "2025-2028"},
	{Nome: "CICERO DO SIBAUMA", Partido: "PP", Cargo: "1º Secretário", Mandato: "2025-2028"},
	{Nome: "DEDA DE TIBAU", Partido: "PSD", Cargo: "2º Secretário", Mandato: "2025-2028"},
	{Nome: "FRANCISCO DAS CHAGAS", Partido: "PL", Cargo: "Vereador", Mandato: "2025-2028"},
	{Nome: "GILVAN DO CAJUEIRO", Partido: "PT", Cargo: "Vereador", Mandato: "2025-2028"},
	{Nome: "JOSENILDO DA PRAIA", Partido: "REPUBLICANOS", Cargo: "Vereador", Mandato: "2025-2028"},
	{Nome: "MARIA DO CARMO", Partido: "PSB", Cargo: "Vereadora", Mandato: "2025-2028"},
	{Nome: "NEGUINHO DA UMARI", Partido: "PP", Cargo: "Vereador", Mandato: "2025-2028"},
	{Nome: "RAIMUNDO NONATO", Partido: "UNIAO", Cargo: "Vereador", Mandato: "2025-2028"},
	{Nome: "ZE DE LUCIA", Partido: "MDB", Cargo: "Vereador", Mandato: "2025-2028"},
}

func (p *Pipeline) seedVereadores(ctx context.Context) (int, error) {
	const component = "pipeline.legacy"

	for i := range vereadoresSeed {
		vereador := vereadoresSeed[i]
		if err := p.storage.Vereadores.Upsert(ctx, &vereador); err != nil {
			return i, err
		}
	}
	p.logger.Info(component, "%d vereadores registrados", len(vereadoresSeed))
	return len(vereadoresSeed), nil
}

// Reprocess reloads everything available under dataDir: the legacy
// snapshot files plus the year-wide investigation pulls from the other
// sources. With truncate set, the reconciled tables are wiped first;
// sync history and alerts always survive.
func (p *Pipeline) Reprocess(ctx context.Context, dataDir string, truncate bool) (*store.SyncRun, int, error) {
	const component = "pipeline.reprocess"

	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		return nil, 0, fmt.Errorf("diretorio de dados inacessivel: %s", dataDir)
	}

	run, err := p.tracker.Start(ctx, "reprocessamento")
	if err != nil {
		return nil, 0, err
	}

	total := 0
	fail := func(stepErr error) (*store.SyncRun, int, error) {
		p.tracker.Fail(ctx, run, stepErr)
		return run, total, stepErr
	}

	if truncate {
		if err := p.storage.Admin.TruncateReconciled(ctx); err != nil {
			return fail(err)
		}
		p.logger.Info(component, "tabelas reconciliadas truncadas")
	}

	count, err := p.seedVereadores(ctx)
	if err != nil {
		return fail(err)
	}
	total += count

	if rows, ok := p.readSnapshotRows(dataDir, FileReceitas); ok {
		if count, err = p.reconcileReceitas(ctx, FonteLegacy, FileReceitas, ExercicioReferencia, connector.DecodeRows[connector.ReceitaRow](rows)); err != nil {
			return fail(err)
		}
		total += count
	}
	if rows, ok := p.readSnapshotRows(dataDir, FileDespesas); ok {
		if count, err = p.reconcileDespesas(ctx, FonteLegacy, FileDespesas, ExercicioReferencia, connector.DecodeRows[connector.DespesaRow](rows)); err != nil {
			return fail(err)
		}
		total += count
	}
	if rows, ok := p.readSnapshotRows(dataDir, FileLicitacoes); ok {
		if count, err = p.reconcileLicitacoes(ctx, FonteLegacy, FileLicitacoes, ExercicioReferencia, connector.DecodeRows[connector.LicitacaoRow](rows)); err != nil {
			return fail(err)
		}
		total += count
	}
	if rows, ok := p.readSnapshotRows(dataDir, FileContratos); ok {
		if count, err = p.reconcileContratos(ctx, FonteLegacy, FileContratos, ExercicioReferencia, connector.DecodeRows[connector.ContratoRow](rows)); err != nil {
			return fail(err)
		}
		total += count
	}

	if rows, ok := p.readSnapshotRows(dataDir, FileTCELicitacoes); ok {
		if count, err = p.reconcileTCELicitacoes(ctx, FileTCELicitacoes, connector.DecodeRows[connector.TCELicitacaoRow](rows)); err != nil {
			return fail(err)
		}
		total += count
	}
	if rows, ok := p.readSnapshotRows(dataDir, FileTCEContratos); ok {
		if count, err = p.reconcileTCEContratos(ctx, FileTCEContratos, connector.DecodeRows[connector.TCEContratoRow](rows)); err != nil {
			return fail(err)
		}
		total += count
	}

	if _, err = p.recomputeFornecedores(ctx); err != nil {
		return fail(err)
	}

	if rows, ok := p.readSnapshotRows(dataDir, FileTSEmendas); ok {
		if count, err = p.reconcileEmendas(ctx, FontePrefeitura, FileTSEmendas, connector.DecodeRows[connector.EmendaRow](rows)); err != nil {
			return fail(err)
		}
		total += count
	}
	if rows, ok := p.readSnapshotRows(dataDir, FileTSOrcamento); ok {
		if count, err = p.reconcileOrcamento(ctx, FontePrefeitura, FileTSOrcamento, connector.DecodeRows[connector.OrcamentoRow](rows)); err != nil {
			return fail(err)
		}
		total += count
	}
	if rows, ok := p.readSnapshotRows(dataDir, FileTSReceitas); ok {
		if count, err = p.reconcileReceitas(ctx, FontePrefeitura, FileTSReceitas, ExercicioReferencia, connector.DecodeRows[connector.ReceitaRow](rows)); err != nil {
			return fail(err)
		}
		total += count
	}
	// The year-wide payroll pull supersedes the monthly legacy file; the
	// servidores table is a full replace, so only one of them loads.
	if rows, ok := p.readSnapshotRows(dataDir, FileTSServidores); ok {
		if count, err = p.reconcileServidores(ctx, FontePrefeitura, FileTSServidores, connector.DecodeRows[connector.ServidorRow](rows)); err != nil {
			return fail(err)
		}
		total += count
	} else if meses, ok := p.readServidoresMensais(dataDir); ok {
		if count, err = p.reconcileServidoresLegados(ctx, meses); err != nil {
			return fail(err)
		}
		total += count
	}

	if err := p.tracker.Succeed(ctx, run, total); err != nil {
		return run, total, err
	}
	p.logger.Info(component, "reprocessamento concluido: %d registros", total)
	return run, total, nil
}
