package risk

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/pipeline"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

func testEngine() (*Engine, *store.Storage) {
	storage := store.NewMemory()
	return New(storage, &logger.Logger{MinLevel: logger.LevelError}), storage
}

func alertCodes(t *testing.T, storage *store.Storage) map[string]int {
	t.Helper()
	alertas, err := storage.Alertas.List(context.Background(), 1000)
	if err != nil {
		t.Fatalf("list alertas: %v", err)
	}
	codes := map[string]int{}
	for _, alerta := range alertas {
		codes[alerta.Codigo]++
	}
	return codes
}

// seedConcentration builds 5 large suppliers plus 40 small ones so the
// top-5 share lands exactly where the test wants it.
func seedConcentration(t *testing.T, storage *store.Storage, primeiro decimal.Decimal) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		valor := decimal.NewFromInt(120)
		if i == 0 {
			valor = primeiro
		}
		err := storage.Fornecedores.Upsert(ctx, &store.Fornecedor{
			Nome:       fmt.Sprintf("GRANDE %d", i),
			ValorTotal: valor,
		})
		if err != nil {
			t.Fatalf("upsert fornecedor: %v", err)
		}
	}
	for i := 0; i < 40; i++ {
		err := storage.Fornecedores.Upsert(ctx, &store.Fornecedor{
			Nome:       fmt.Sprintf("PEQUENO %02d", i),
			ValorTotal: decimal.NewFromInt(10),
		})
		if err != nil {
			t.Fatalf("upsert fornecedor: %v", err)
		}
	}
}

func TestConcentracaoExactThresholdDoesNotFire(t *testing.T) {
	engine, storage := testEngine()
	// top-5 = 600 of 1000: exactly 60%.
	seedConcentration(t, storage, decimal.NewFromInt(120))

	if _, err := engine.GenerateAlerts(context.Background()); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	if codes := alertCodes(t, storage); codes["CONC-FORN-001"] != 0 {
		t.Error("alert fired at exactly 60%")
	}
}

func TestConcentracaoAboveThresholdFires(t *testing.T) {
	engine, storage := testEngine()
	// top-5 = 600.10 of 1000.10: just over 60%.
	seedConcentration(t, storage, decimal.RequireFromString("120.10"))

	if _, err := engine.GenerateAlerts(context.Background()); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	if codes := alertCodes(t, storage); codes["CONC-FORN-001"] != 1 {
		t.Error("alert should fire just above 60%")
	}
}

func TestConcentracaoEmptyStoreIsQuiet(t *testing.T) {
	engine, storage := testEngine()
	if _, err := engine.GenerateAlerts(context.Background()); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	if codes := alertCodes(t, storage); len(codes) != 0 {
		t.Errorf("empty store produced alerts: %v", codes)
	}
}

func TestExecucaoOrcamentariaPorSecretaria(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	// 5% paid on a budget above the floor fires the per-secretaria rule.
	baixa := &store.DespesaSecretaria{
		Ano:        pipeline.ExercicioReferencia,
		Secretaria: "SEC. OBRAS",
		Orcado:     decimal.NewFromInt(200000),
		Pago:       decimal.NewFromInt(10000),
	}
	if err := storage.Financas.UpsertDespesa(ctx, baixa); err != nil {
		t.Fatalf("upsert despesa: %v", err)
	}
	// Pulls the global rate to exactly 50%, which must stay quiet.
	alta := &store.DespesaSecretaria{
		Ano:        pipeline.ExercicioReferencia,
		Secretaria: "SEC. SAUDE",
		Orcado:     decimal.NewFromInt(100000),
		Pago:       decimal.NewFromInt(140000),
	}
	if err := storage.Financas.UpsertDespesa(ctx, alta); err != nil {
		t.Fatalf("upsert despesa: %v", err)
	}

	if _, err := engine.GenerateAlerts(ctx); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	codes := alertCodes(t, storage)
	if codes[fmt.Sprintf("EXEC-SEC-%03d", baixa.ID)] != 1 {
		t.Errorf("per-secretaria alert missing: %v", codes)
	}
	if codes["EXEC-ORC-001"] != 0 {
		t.Error("global alert should not fire at exactly 50%")
	}
}

func TestExecucaoOrcamentariaGlobal(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	despesa := &store.DespesaSecretaria{
		Ano:        pipeline.ExercicioReferencia,
		Secretaria: "SEC. OBRAS",
		Orcado:     decimal.NewFromInt(1000),
		Pago:       decimal.NewFromInt(499),
	}
	if err := storage.Financas.UpsertDespesa(ctx, despesa); err != nil {
		t.Fatalf("upsert despesa: %v", err)
	}

	if _, err := engine.GenerateAlerts(ctx); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	codes := alertCodes(t, storage)
	if codes["EXEC-ORC-001"] != 1 {
		t.Errorf("global under-execution alert missing: %v", codes)
	}
	// 49.9% paid is above the 20% per-secretaria floor.
	if codes[fmt.Sprintf("EXEC-SEC-%03d", despesa.ID)] != 0 {
		t.Errorf("per-secretaria alert should not fire: %v", codes)
	}
}

func TestEmendasBaixaExecucao(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	// 50 paid of 300 forecast: 16.67%, under 30%.
	emendas := []store.Emenda{
		{Numero: "1", Ano: pipeline.ExercicioReferencia, ValorPrevisto: decimal.NewFromInt(100), Pago: decimal.Zero},
		{Numero: "2", Ano: pipeline.ExercicioReferencia, ValorPrevisto: decimal.NewFromInt(200), Pago: decimal.NewFromInt(50)},
	}
	if err := storage.Financas.ReplaceEmendas(ctx, emendas); err != nil {
		t.Fatalf("replace emendas: %v", err)
	}

	if _, err := engine.GenerateAlerts(ctx); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	if codes := alertCodes(t, storage); codes["EMENDA-EXEC-001"] != 1 {
		t.Errorf("amendment alert missing: %v", codes)
	}
}

func TestEmendasExactThresholdDoesNotFire(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	emendas := []store.Emenda{
		{Numero: "1", Ano: pipeline.ExercicioReferencia, ValorPrevisto: decimal.NewFromInt(100), Pago: decimal.NewFromInt(30)},
	}
	if err := storage.Financas.ReplaceEmendas(ctx, emendas); err != nil {
		t.Fatalf("replace emendas: %v", err)
	}

	if _, err := engine.GenerateAlerts(ctx); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	if codes := alertCodes(t, storage); codes["EMENDA-EXEC-001"] != 0 {
		t.Error("alert fired at exactly 30% execution")
	}
}

func TestEmendasPortfolioBeyondOnePage(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	// The first page (largest forecasts) is fully paid; 3000 smaller
	// unpaid amendments behind it drag the portfolio to ~25%.
	emendas := make([]store.Emenda, 0, 4000)
	for i := 0; i < 1000; i++ {
		emendas = append(emendas, store.Emenda{
			Numero:        fmt.Sprintf("P%04d", i),
			Ano:           pipeline.ExercicioReferencia,
			ValorPrevisto: decimal.NewFromInt(100),
			Pago:          decimal.NewFromInt(100),
		})
	}
	for i := 0; i < 3000; i++ {
		emendas = append(emendas, store.Emenda{
			Numero:        fmt.Sprintf("Z%04d", i),
			Ano:           pipeline.ExercicioReferencia,
			ValorPrevisto: decimal.NewFromInt(99),
			Pago:          decimal.Zero,
		})
	}
	if err := storage.Financas.ReplaceEmendas(ctx, emendas); err != nil {
		t.Fatalf("replace emendas: %v", err)
	}

	if _, err := engine.GenerateAlerts(ctx); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	if codes := alertCodes(t, storage); codes["EMENDA-EXEC-001"] != 1 {
		t.Errorf("alert must consider amendments past the first page: %v", codes)
	}
}

func TestContratosSemCNPJEForaDaCurva(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	// 2 of 4 contracts without CNPJ: 50%, over the 30% limit.
	// Mean value = 50, 3x = 150: only the 170 contract exceeds it.
	contratos := []store.Contrato{
		{Numero: "1/2025", Empresa: "A", CNPJ: "12345678000190", Valor: decimal.NewFromInt(10), Fonte: "legacy_snapshot"},
		{Numero: "2/2025", Empresa: "B", CNPJ: "", Valor: decimal.NewFromInt(10), Fonte: "legacy_snapshot"},
		{Numero: "3/2025", Empresa: "C", CNPJ: "12345678000192", Valor: decimal.NewFromInt(10), Fonte: "legacy_snapshot"},
		{Numero: "4/2025", Empresa: "D", CNPJ: "", Valor: decimal.NewFromInt(170), Fonte: "legacy_snapshot"},
	}
	for i := range contratos {
		if err := storage.Contratos.Upsert(ctx, &contratos[i]); err != nil {
			t.Fatalf("upsert contrato: %v", err)
		}
	}

	if _, err := engine.GenerateAlerts(ctx); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	codes := alertCodes(t, storage)
	if codes["CONT-CNPJ-001"] != 1 {
		t.Errorf("missing-CNPJ alert missing: %v", codes)
	}
	if codes["CONT-VALOR-001"] != 1 {
		t.Errorf("outlier alert missing: %v", codes)
	}
}

func TestContratosDentroDosLimites(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	// 1 of 4 without CNPJ: 25%, under the 30% limit; all values equal,
	// so no contract exceeds 3x the mean.
	for i, cnpj := range []string{"12345678000190", "12345678000191", "12345678000192", ""} {
		contrato := &store.Contrato{
			Numero:  fmt.Sprintf("%d/2025", i+1),
			Empresa: fmt.Sprintf("EMPRESA %d", i),
			CNPJ:    cnpj,
			Valor:   decimal.NewFromInt(30),
			Fonte:   "legacy_snapshot",
		}
		if err := storage.Contratos.Upsert(ctx, contrato); err != nil {
			t.Fatalf("upsert contrato: %v", err)
		}
	}

	if _, err := engine.GenerateAlerts(ctx); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	codes := alertCodes(t, storage)
	if codes["CONT-CNPJ-001"] != 0 {
		t.Errorf("missing-CNPJ share is under the limit: %v", codes)
	}
	if codes["CONT-VALOR-001"] != 0 {
		t.Errorf("no contract exceeds 3x the mean: %v", codes)
	}
}

func TestServidoresAlerts(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	servidores := []store.Servidor{
		{Nome: "A", Vinculo: "COMISSIONADO", RemuneracaoBruta: decimal.NewFromInt(1000)},
		{Nome: "B", Vinculo: "CARGO EM COMISSAO", RemuneracaoBruta: decimal.NewFromInt(1000)},
		{Nome: "C", Vinculo: "EFETIVO", RemuneracaoBruta: decimal.Zero},
	}
	if err := storage.Servidores.ReplaceAll(ctx, servidores); err != nil {
		t.Fatalf("replace servidores: %v", err)
	}

	if _, err := engine.GenerateAlerts(ctx); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	codes := alertCodes(t, storage)
	// 1 of 3 with zero gross pay: 33%, over the 5% limit.
	if codes["SERV-SAL-001"] != 1 {
		t.Errorf("zero-pay alert missing: %v", codes)
	}
	// 2 of 3 commissioned: 66.67%, over the 20% limit.
	if codes["SERV-CC-001"] != 1 {
		t.Errorf("commissioned-share alert missing: %v", codes)
	}
}

func TestComissionadosExactThresholdDoesNotFire(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	servidores := make([]store.Servidor, 0, 10)
	for i := 0; i < 10; i++ {
		vinculo := "EFETIVO"
		if i < 2 {
			vinculo = "COMISSIONADO"
		}
		servidores = append(servidores, store.Servidor{
			Nome:             fmt.Sprintf("SERVIDOR %d", i),
			Vinculo:          vinculo,
			RemuneracaoBruta: decimal.NewFromInt(1000),
		})
	}
	if err := storage.Servidores.ReplaceAll(ctx, servidores); err != nil {
		t.Fatalf("replace servidores: %v", err)
	}

	if _, err := engine.GenerateAlerts(ctx); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	if codes := alertCodes(t, storage); codes["SERV-CC-001"] != 0 {
		t.Error("alert fired at exactly 20%")
	}
}

func TestResumoLicitacoes(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	licitacoes := []store.Licitacao{
		{Certame: "1/2025", Objeto: "Compra de merenda", Situacao: "Homologada", Valor: decimal.NewFromInt(100), Fonte: "legacy_snapshot"},
		{Certame: "2/2025", Objeto: "Servicos de limpeza", Situacao: "Em andamento", Valor: decimal.NewFromInt(100), Fonte: "legacy_snapshot"},
	}
	for i := range licitacoes {
		if err := storage.Licitacoes.Upsert(ctx, &licitacoes[i]); err != nil {
			t.Fatalf("upsert licitacao: %v", err)
		}
	}

	if _, err := engine.GenerateAlerts(ctx); err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	if codes := alertCodes(t, storage); codes["LICIT-INFO-001"] != 1 {
		t.Errorf("procurement summary missing: %v", codes)
	}
}

func TestGenerateAlertsReplacesPreviousSet(t *testing.T) {
	ctx := context.Background()
	engine, storage := testEngine()

	emendas := []store.Emenda{
		{Numero: "1", Ano: pipeline.ExercicioReferencia, ValorPrevisto: decimal.NewFromInt(100)},
	}
	if err := storage.Financas.ReplaceEmendas(ctx, emendas); err != nil {
		t.Fatalf("replace emendas: %v", err)
	}

	first, err := engine.GenerateAlerts(ctx)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := engine.GenerateAlerts(ctx)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if first != second {
		t.Errorf("scan counts diverged: %d then %d", first, second)
	}
	alertas, _ := storage.Alertas.List(ctx, 1000)
	if len(alertas) != second {
		t.Errorf("alerts accumulated across scans: %d stored", len(alertas))
	}
}
