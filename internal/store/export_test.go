package store

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWriteCSV(t *testing.T) {
	fornecedores := []Fornecedor{
		{ID: 1, Nome: "EMPRESA X LTDA", CNPJ: "12345678000190", ValorTotal: decimal.RequireFromString("1234.5"), QtdContratos: 2},
		{ID: 2, Nome: "EMPRESA; COM PONTO E VIRGULA", ValorTotal: decimal.Zero},
	}

	var out strings.Builder
	if err := WriteCSV(&out, fornecedores); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0] != "id;nome;cnpj;valor_total;qtd_contratos;atualizado_em" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "1234.50") {
		t.Errorf("valor should be two-decimal fixed: %q", lines[1])
	}
	if !strings.Contains(lines[2], `"EMPRESA; COM PONTO E VIRGULA"`) {
		t.Errorf("embedded delimiter should be quoted: %q", lines[2])
	}
}

func TestWriteCSVRejectsNonSlice(t *testing.T) {
	var out strings.Builder
	if err := WriteCSV(&out, Fornecedor{}); err == nil {
		t.Fatal("expected error for non-slice input")
	}
}
