package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses and uppercases", "  Secretaria   de  Saúde ", "SECRETARIA DE SAÚDE"},
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"tabs and newlines", "a\t b\nc", "A B C"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.in); got != tc.want {
				t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCNPJ(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.345.678/0001-90", "12345678000190"},
		{"12345678000190", "12345678000190"},
		{"", ""},
		{"abc", ""},
	}
	for _, tc := range tests {
		if got := CNPJ(tc.in); got != tc.want {
			t.Errorf("CNPJ(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidCNPJ(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"11.222.333/0001-81", true},
		{"11222333000181", true},
		{"11222333000180", false},
		{"11111111111111", false},
		{"123", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := ValidCNPJ(tc.in); got != tc.want {
			t.Errorf("ValidCNPJ(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFornecedorKey(t *testing.T) {
	if got := FornecedorKey("Empresa X", "12.345.678/0001-90"); got != "cnpj:12345678000190" {
		t.Errorf("key with cnpj = %q", got)
	}
	if got := FornecedorKey("  empresa  x ", ""); got != "nome:EMPRESA X" {
		t.Errorf("key without cnpj = %q", got)
	}
	if got := FornecedorKey("Empresa X", "sem documento"); got != "nome:EMPRESA X" {
		t.Errorf("key with non-numeric cnpj = %q", got)
	}
}

func TestServidorKey(t *testing.T) {
	if got := ServidorKey("Maria", "Saúde", "Efetivo", " 0042 "); got != "mat:0042" {
		t.Errorf("key with matricula = %q", got)
	}
	if got := ServidorKey("Maria da Silva", "Secretaria de Saúde", "Efetivo", ""); got != "MARIA DA SILVA|SECRETARIA DE SAÚDE|EFETIVO" {
		t.Errorf("composite key = %q", got)
	}
}

func TestOrgao(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GABINETE DO PREFEITO - CC", "GABINETE DO PREFEITO"},
		{"SEC MUN DE SAUDE - EF", "SEC MUN DE SAUDE"},
		{"SEM SUFIXO", "SEM SUFIXO"},
		{"  COM ESPACOS  ", "COM ESPACOS"},
	}
	for _, tc := range tests {
		if got := Orgao(tc.in); got != tc.want {
			t.Errorf("Orgao(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMoneyFromString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1234.56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1.234.567,89", "1234567.89"},
		{"-1.000,00", "-1000"},
		{"", "0"},
		{"abc", "0"},
		{"  42  ", "42"},
	}
	for _, tc := range tests {
		got := MoneyFromString(tc.in)
		want, _ := decimal.NewFromString(tc.want)
		if !got.Equal(want) {
			t.Errorf("MoneyFromString(%q) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"number", `{"v": 1234.56}`, "1234.56"},
		{"locale string", `{"v": "1.234,56"}`, "1234.56"},
		{"plain string", `{"v": "1234.56"}`, "1234.56"},
		{"null", `{"v": null}`, "0"},
		{"empty string", `{"v": ""}`, "0"},
		{"garbage", `{"v": "n/d"}`, "0"},
		{"absent", `{}`, "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var payload struct {
				V Money `json:"v"`
			}
			if err := json.Unmarshal([]byte(tc.in), &payload); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			want, _ := decimal.NewFromString(tc.want)
			if !payload.V.Equal(want) {
				t.Errorf("got %s, want %s", payload.V, want)
			}
		})
	}
}

func TestStringUnmarshalJSON(t *testing.T) {
	var payload struct {
		A String `json:"a"`
		B String `json:"b"`
		C String `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": "1/2025", "b": 42, "c": null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.A != "1/2025" || payload.B != "42" || payload.C != "" {
		t.Errorf("got %q %q %q", payload.A, payload.B, payload.C)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"-1.005", "-1.01"},
		{"2.344", "2.34"},
		{"2.345", "2.35"},
	}
	for _, tc := range tests {
		in, _ := decimal.NewFromString(tc.in)
		want, _ := decimal.NewFromString(tc.want)
		if got := Round2(in); !got.Equal(want) {
			t.Errorf("Round2(%s) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestDates(t *testing.T) {
	if got := DateBR("15/03/2025"); got == nil || !got.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateBR = %v", got)
	}
	if got := DateBR("15/03/2025 10:30:00"); got == nil || !got.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateBR with time = %v", got)
	}
	if got := DateBR("2025-03-15"); got != nil {
		t.Errorf("DateBR iso input should fail, got %v", got)
	}
	if got := DateISO("2025-03-15"); got == nil || !got.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateISO = %v", got)
	}
	if got := DateISO("2025-03-15T10:30:00Z"); got == nil || !got.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateISO with time = %v", got)
	}
	if got := DateISO(""); got != nil {
		t.Errorf("DateISO empty should be nil, got %v", got)
	}
}

func TestYear(t *testing.T) {
	if got := Year("2025"); got != 2025 {
		t.Errorf("Year = %d", got)
	}
	if got := Year(""); got != 0 {
		t.Errorf("Year empty = %d", got)
	}
	if got := Year("n/d"); got != 0 {
		t.Errorf("Year garbage = %d", got)
	}
}
