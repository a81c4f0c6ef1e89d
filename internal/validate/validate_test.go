package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/pipeline"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

func testLogger() *logger.Logger {
	return &logger.Logger{MinLevel: logger.LevelError}
}

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func loadedStorage(t *testing.T, dir string) *store.Storage {
	t.Helper()
	writeFixture(t, dir, pipeline.FileReceitas,
		`[{"txtClassificacao": "Receitas Correntes", "vlrPrevisaoAtualizado": 100, "vlrArrecadacao": 90}]`)
	writeFixture(t, dir, pipeline.FileDespesas,
		`[{"exercicio": 2025, "txtDescricaoUnidade": "Sec. Teste", "vlrOrcadoAtualizado": 80, "vlrEmpenhado": 70, "vlrLiquidado": 60, "vlrPago": 50}]`)
	writeFixture(t, dir, pipeline.FileLicitacoes,
		`[{"numCertame": "1/2025", "txtObjeto": "Compra", "vlrTotal": 123}]`)
	writeFixture(t, dir, pipeline.FileContratos,
		`[{"numContrato": "10/2025", "txtNomeRazaoContratada": "Empresa Teste", "vlrContrato": 456}]`)
	writeFixture(t, dir, pipeline.FileServidores,
		`[{"mes": 12, "payload": {"data": [{"nome": "Servidor Teste", "orgao": "Sec. Teste", "vinculo": "Efetivo", "vlrRemuneracaoBruta": 1000, "dtMesAno": "2025-12-01"}]}}]`)

	storage := store.NewMemory()
	p := pipeline.New(storage, testLogger(), nil)
	if _, _, err := p.LoadLegacySnapshot(context.Background(), dir, ""); err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	return storage
}

func TestValidateLegacyConsistentLoad(t *testing.T) {
	dir := t.TempDir()
	storage := loadedStorage(t, dir)

	v := New(storage, testLogger())
	if err := v.ValidateLegacy(context.Background(), dir); err != nil {
		t.Errorf("fresh load should validate clean: %v", err)
	}
}

func TestValidateLegacyReportsTamperedNotice(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	storage := loadedStorage(t, dir)

	tampered := &store.Licitacao{
		Certame: "1/2025",
		Objeto:  "Compra",
		Valor:   decimal.NewFromInt(999),
		Fonte:   pipeline.FonteLegacy,
	}
	if err := storage.Licitacoes.Upsert(ctx, tampered); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	v := New(storage, testLogger())
	err := v.ValidateLegacy(ctx, dir)
	if err == nil {
		t.Fatal("tampered store should fail validation")
	}
	if !strings.Contains(err.Error(), "licitacoes valor total") {
		t.Errorf("error should name the mismatched family: %v", err)
	}
}

func TestValidateLegacyAggregatesAllMismatches(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	storage := loadedStorage(t, dir)

	receita := &store.ReceitaResumo{
		Ano:                pipeline.ExercicioReferencia,
		PrevisaoAtualizada: decimal.NewFromInt(1),
		Arrecadacao:        decimal.NewFromInt(90),
	}
	if err := storage.Financas.UpsertReceita(ctx, receita); err != nil {
		t.Fatalf("tamper receita: %v", err)
	}
	tampered := &store.Licitacao{
		Certame: "1/2025",
		Objeto:  "Compra",
		Valor:   decimal.NewFromInt(999),
		Fonte:   pipeline.FonteLegacy,
	}
	if err := storage.Licitacoes.Upsert(ctx, tampered); err != nil {
		t.Fatalf("tamper licitacao: %v", err)
	}

	v := New(storage, testLogger())
	err := v.ValidateLegacy(ctx, dir)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(err.Error(), "receita prevista") || !strings.Contains(err.Error(), "licitacoes valor total") {
		t.Errorf("error should list every mismatch, got: %v", err)
	}
}

func TestValidateLegacyIgnoresOtherExercicios(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	// A 2024 leftover ships in the same file; the loader skips it and so
	// must the validator.
	writeFixture(t, dir, pipeline.FileReceitas,
		`[{"numExercicioFinanc": 2025, "txtClassificacao": "Receitas Correntes", "vlrPrevisaoAtualizado": 100, "vlrArrecadacao": 90},
		{"numExercicioFinanc": 2024, "txtClassificacao": "Receitas Correntes", "vlrPrevisaoAtualizado": 70, "vlrArrecadacao": 60}]`)

	storage := store.NewMemory()
	p := pipeline.New(storage, testLogger(), nil)
	if _, _, err := p.LoadLegacySnapshot(ctx, dir, ""); err != nil {
		t.Fatalf("load snapshot: %v", err)
	}

	v := New(storage, testLogger())
	if err := v.ValidateLegacy(ctx, dir); err != nil {
		t.Errorf("mixed-exercise snapshot should validate clean: %v", err)
	}
}

func TestCheckReceitaRoundsEachAddend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	// Each addend rounds to two decimals before summing: 60.004 twice is
	// 120.00, not round(120.008) = 120.01.
	writeFixture(t, dir, pipeline.FileReceitas,
		`[{"txtClassificacao": "A", "vlrPrevisaoAtualizado": 60.004, "vlrArrecadacao": 30.004},
		{"txtClassificacao": "B", "vlrPrevisaoAtualizado": 60.004, "vlrArrecadacao": 30.004}]`)

	storage := store.NewMemory()
	receita := &store.ReceitaResumo{
		Ano:                pipeline.ExercicioReferencia,
		PrevisaoAtualizada: decimal.RequireFromString("120.00"),
		Arrecadacao:        decimal.RequireFromString("60.00"),
	}
	if err := storage.Financas.UpsertReceita(ctx, receita); err != nil {
		t.Fatalf("upsert receita: %v", err)
	}

	v := New(storage, testLogger())
	mismatches := []string{}
	report := func(format string, args ...interface{}) {
		mismatches = append(mismatches, fmt.Sprintf(format, args...))
	}
	if err := v.checkReceita(ctx, dir, report); err != nil {
		t.Fatalf("checkReceita: %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("mismatches = %v", mismatches)
	}
}

func TestValidateLegacyMissingFilesSkip(t *testing.T) {
	dir := t.TempDir()
	storage := store.NewMemory()

	v := New(storage, testLogger())
	if err := v.ValidateLegacy(context.Background(), dir); err != nil {
		t.Errorf("missing files are skips, not failures: %v", err)
	}
}
