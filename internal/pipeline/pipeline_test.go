package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

func testPipeline() (*Pipeline, *store.Storage) {
	storage := store.NewMemory()
	return New(storage, &logger.Logger{MinLevel: logger.LevelError}, nil), storage
}

func writeSnapshot(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func writeLegacyFixtures(t *testing.T, dir string) {
	t.Helper()
	writeSnapshot(t, dir, FileReceitas,
		`[{"txtClassificacao": "Receitas Correntes", "vlrPrevisaoAtualizado": "100", "vlrArrecadacao": 90}]`)
	writeSnapshot(t, dir, FileDespesas,
		`[{"exercicio": 2025, "txtDescricaoUnidade": "Sec. Teste", "vlrOrcadoAtualizado": 80, "vlrEmpenhado": 70, "vlrLiquidado": 60, "vlrPago": 50}]`)
	writeSnapshot(t, dir, FileLicitacoes,
		`[{"numCertame": "1/2025", "txtModalidadeLicit": "Pregão Eletrônico", "txtObjeto": "Aquisição de materiais", "txtSituacao": "Homologada", "vlrTotal": 123}]`)
	writeSnapshot(t, dir, FileContratos,
		`[{"numContrato": "10/2025", "txtNomeRazaoContratada": "Empresa Teste", "txtCpfCnpjContratada": "", "txtObjeto": "Serviços", "vlrContrato": 456}]`)
	writeSnapshot(t, dir, FileServidores,
		`[{"mes": 11, "payload": {"data": []}},
		  {"mes": 12, "payload": {"data": [{"nome": "Servidor Teste", "orgao": "Sec. Teste - CC", "vinculo": "Comissionado", "vlrRemuneracaoBruta": 1000, "vlrRemuAposDescObrig": 900, "dtMesAno": "2025-12-01"}]}}]`)
}

func TestLoadLegacySnapshotEndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeLegacyFixtures(t, dir)
	p, storage := testPipeline()

	run, total, err := p.LoadLegacySnapshot(ctx, dir, "")
	if err != nil {
		t.Fatalf("LoadLegacySnapshot: %v", err)
	}
	if run.Status != store.RunSucesso {
		t.Errorf("run status = %q", run.Status)
	}
	if run.UUID == "" {
		t.Error("run should carry a correlation uuid")
	}
	if total == 0 {
		t.Error("total processed should be positive")
	}

	receita, err := storage.Financas.GetReceita(ctx, 2025)
	if err != nil || receita == nil {
		t.Fatalf("receita 2025 ausente: %v", err)
	}
	if !receita.PrevisaoAtualizada.Equal(decimal.NewFromInt(100)) || !receita.Arrecadacao.Equal(decimal.NewFromInt(90)) {
		t.Errorf("receita = %s / %s", receita.PrevisaoAtualizada, receita.Arrecadacao)
	}

	despesas, err := storage.Financas.ListDespesas(ctx, 2025)
	if err != nil || len(despesas) != 1 {
		t.Fatalf("despesas = %d (%v)", len(despesas), err)
	}
	if despesas[0].Secretaria != "SEC. TESTE" {
		t.Errorf("secretaria = %q", despesas[0].Secretaria)
	}
	if !despesas[0].Orcado.Equal(decimal.NewFromInt(80)) || !despesas[0].Pago.Equal(decimal.NewFromInt(50)) {
		t.Errorf("despesa = %s / %s", despesas[0].Orcado, despesas[0].Pago)
	}

	licitacoes, err := storage.Licitacoes.List(ctx, store.ListOptions{})
	if err != nil || len(licitacoes) != 1 {
		t.Fatalf("licitacoes = %d (%v)", len(licitacoes), err)
	}
	if licitacoes[0].Certame != "1/2025" || !licitacoes[0].Valor.Equal(decimal.NewFromInt(123)) {
		t.Errorf("licitacao = %q valor %s", licitacoes[0].Certame, licitacoes[0].Valor)
	}

	contratos, err := storage.Contratos.List(ctx, store.ListOptions{})
	if err != nil || len(contratos) != 1 {
		t.Fatalf("contratos = %d (%v)", len(contratos), err)
	}
	if contratos[0].Numero != "10/2025" {
		t.Errorf("contrato numero = %q", contratos[0].Numero)
	}

	fornecedores, err := storage.Fornecedores.List(ctx, store.ListOptions{})
	if err != nil || len(fornecedores) != 1 {
		t.Fatalf("fornecedores = %d (%v)", len(fornecedores), err)
	}
	if fornecedores[0].Nome != "EMPRESA TESTE" || !fornecedores[0].ValorTotal.Equal(decimal.NewFromInt(456)) {
		t.Errorf("fornecedor = %q total %s", fornecedores[0].Nome, fornecedores[0].ValorTotal)
	}
	if fornecedores[0].QtdContratos != 1 {
		t.Errorf("qtd contratos = %d", fornecedores[0].QtdContratos)
	}

	servidores, err := storage.Servidores.List(ctx, store.ListOptions{})
	if err != nil || len(servidores) != 1 {
		t.Fatalf("servidores = %d (%v)", len(servidores), err)
	}
	if servidores[0].Nome != "SERVIDOR TESTE" {
		t.Errorf("servidor = %q", servidores[0].Nome)
	}
	if servidores[0].Orgao != "SEC. TESTE" {
		t.Errorf("orgao should drop the ' - CC' tail: %q", servidores[0].Orgao)
	}

	vereadores, err := storage.Vereadores.Count(ctx)
	if err != nil || vereadores != 11 {
		t.Errorf("vereadores = %d (%v)", vereadores, err)
	}

	provenance, err := storage.Provenance.Count(ctx)
	if err != nil || provenance == 0 {
		t.Errorf("provenance = %d (%v)", provenance, err)
	}
}

func TestLoadLegacySnapshotIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeLegacyFixtures(t, dir)
	p, storage := testPipeline()

	if _, _, err := p.LoadLegacySnapshot(ctx, dir, ""); err != nil {
		t.Fatalf("first load: %v", err)
	}
	provBefore, _ := storage.Provenance.Count(ctx)

	if _, _, err := p.LoadLegacySnapshot(ctx, dir, ""); err != nil {
		t.Fatalf("second load: %v", err)
	}

	licitacoes, _ := storage.Licitacoes.Count(ctx)
	contratos, _ := storage.Contratos.Count(ctx)
	fornecedores, _ := storage.Fornecedores.Count(ctx)
	servidores, _ := storage.Servidores.Count(ctx)
	vereadores, _ := storage.Vereadores.Count(ctx)
	provAfter, _ := storage.Provenance.Count(ctx)

	if licitacoes != 1 || contratos != 1 || fornecedores != 1 || servidores != 1 || vereadores != 11 {
		t.Errorf("counts after reload: lic=%d cont=%d forn=%d serv=%d ver=%d",
			licitacoes, contratos, fornecedores, servidores, vereadores)
	}
	if provAfter != provBefore {
		t.Errorf("provenance grew on identical reload: %d -> %d", provBefore, provAfter)
	}

	fornecedores2, _ := storage.Fornecedores.List(ctx, store.ListOptions{})
	if !fornecedores2[0].ValorTotal.Equal(decimal.NewFromInt(456)) {
		t.Errorf("fornecedor total should not accumulate across loads: %s", fornecedores2[0].ValorTotal)
	}
}

func TestLotAccumulation(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeSnapshot(t, dir, FileLicitacoes,
		`[{"numCertame": "2/2025", "txtObjeto": "Lote 1", "vlrTotal": 100},
		  {"numCertame": "2/2025", "txtObjeto": "Lote 2", "vlrTotal": 50}]`)
	p, storage := testPipeline()

	if _, _, err := p.LoadLegacySnapshot(ctx, dir, ""); err != nil {
		t.Fatalf("load: %v", err)
	}

	licitacoes, err := storage.Licitacoes.List(ctx, store.ListOptions{})
	if err != nil || len(licitacoes) != 1 {
		t.Fatalf("licitacoes = %d (%v)", len(licitacoes), err)
	}
	if !licitacoes[0].Valor.Equal(decimal.NewFromInt(150)) {
		t.Errorf("valor acumulado = %s, want 150", licitacoes[0].Valor)
	}
	if licitacoes[0].Objeto != "Lote 1" {
		t.Errorf("descriptive fields should come from the first lot: %q", licitacoes[0].Objeto)
	}
}

func TestTCELotAccumulationAcrossSources(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeSnapshot(t, dir, FileLicitacoes,
		`[{"numCertame": "1/2025", "vlrTotal": 123, "txtObjeto": "Compra"}]`)
	writeSnapshot(t, dir, FileTCELicitacoes,
		`[{"numeroLicitacao": "1", "anoLicitacao": "2025", "numeroLote": "1", "valorTotalOrcado": 60, "descricaoObjeto": "Compra"},
		  {"numeroLicitacao": "1", "anoLicitacao": "2025", "numeroLote": "2", "valorTotalOrcado": 63, "descricaoObjeto": "Compra"}]`)
	p, storage := testPipeline()

	if _, _, err := p.Reprocess(ctx, dir, false); err != nil {
		t.Fatalf("reprocess: %v", err)
	}

	count, _ := storage.Licitacoes.Count(ctx)
	if count != 2 {
		t.Fatalf("licitacoes = %d, want one per source", count)
	}
	licitacoes, _ := storage.Licitacoes.List(ctx, store.ListOptions{})
	for _, licitacao := range licitacoes {
		if !licitacao.Valor.Equal(decimal.NewFromInt(123)) {
			t.Errorf("licitacao %s (%s) valor = %s, want 123", licitacao.Certame, licitacao.Fonte, licitacao.Valor)
		}
	}
}

func TestServidoresTemporalDedupe(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeSnapshot(t, dir, FileTSServidores,
		`[{"numMatricula": "0042", "nome": "Maria", "orgao": "Saude", "vinculo": "Efetivo", "vlrRemuneracaoBruta": 2000, "dtMesAno": "2025-11-01"},
		  {"numMatricula": "0042", "nome": "Maria", "orgao": "Saude", "vinculo": "Efetivo", "vlrRemuneracaoBruta": 2100, "dtMesAno": "2025-12-01"},
		  {"numMatricula": "0042", "nome": "Maria", "orgao": "Saude", "vinculo": "Efetivo", "vlrRemuneracaoBruta": 1900, "dtMesAno": ""},
		  {"numMatricula": "", "nome": "Jose", "orgao": "Obras", "vinculo": "Efetivo", "vlrRemuneracaoBruta": 1500, "dtMesAno": "2025-12-01"}]`)
	p, storage := testPipeline()

	if _, _, err := p.Reprocess(ctx, dir, false); err != nil {
		t.Fatalf("reprocess: %v", err)
	}

	servidores, err := storage.Servidores.List(ctx, store.ListOptions{})
	if err != nil || len(servidores) != 2 {
		t.Fatalf("servidores = %d (%v)", len(servidores), err)
	}
	for _, servidor := range servidores {
		if servidor.Nome == "MARIA" && !servidor.RemuneracaoBruta.Equal(decimal.NewFromInt(2100)) {
			t.Errorf("latest competence should win: bruto = %s", servidor.RemuneracaoBruta)
		}
	}
}

func TestReprocessTruncate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeLegacyFixtures(t, dir)
	p, storage := testPipeline()

	if _, _, err := p.LoadLegacySnapshot(ctx, dir, ""); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, _, err := p.Reprocess(ctx, dir, true); err != nil {
		t.Fatalf("reprocess: %v", err)
	}

	licitacoes, _ := storage.Licitacoes.Count(ctx)
	if licitacoes != 1 {
		t.Errorf("licitacoes after truncate+reload = %d", licitacoes)
	}
	runs, _ := storage.SyncRuns.List(ctx, 10)
	if len(runs) != 2 {
		t.Errorf("sync history should survive truncation: %d runs", len(runs))
	}
}

func TestLoadLegacySnapshotMissingDirFailsBeforeRun(t *testing.T) {
	ctx := context.Background()
	p, storage := testPipeline()

	if _, _, err := p.LoadLegacySnapshot(ctx, "/nonexistent/dir", ""); err == nil {
		t.Fatal("expected error for missing data dir")
	}
	runs, _ := storage.SyncRuns.List(ctx, 10)
	if len(runs) != 0 {
		t.Errorf("no run should be recorded for a precondition failure, got %d", len(runs))
	}
}

func TestLoadLegacySnapshotSkipsMissingFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeSnapshot(t, dir, FileReceitas,
		`[{"txtClassificacao": "Receitas Correntes", "vlrPrevisaoAtualizado": 100, "vlrArrecadacao": 90}]`)
	writeSnapshot(t, dir, FileDespesas, `{"nao": "e uma lista"}`)
	p, storage := testPipeline()

	run, _, err := p.LoadLegacySnapshot(ctx, dir, "")
	if err != nil {
		t.Fatalf("missing/unparseable files should be skips, got %v", err)
	}
	if run.Status != store.RunSucesso {
		t.Errorf("run status = %q", run.Status)
	}
	receita, _ := storage.Financas.GetReceita(ctx, 2025)
	if receita == nil {
		t.Error("present file should still load")
	}
	despesas, _ := storage.Financas.ListDespesas(ctx, 2025)
	if len(despesas) != 0 {
		t.Errorf("unparseable despesas should be skipped, got %d", len(despesas))
	}
}
