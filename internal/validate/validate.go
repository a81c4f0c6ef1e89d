package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/connector"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/normalize"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/pipeline"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// Validator recomputes the expected aggregates straight from the legacy
// snapshot files, using the same normalization and grouping rules as
// the loaders, and compares them with what the store holds. Every
// monetary addend is rounded to two decimals before summing, and the
// final comparison is at two decimals as well.
type Validator struct {
	storage *store.Storage
	logger  *logger.Logger
}

func New(storage *store.Storage, log *logger.Logger) *Validator {
	return &Validator{storage: storage, logger: log}
}

// ValidateLegacy runs every consistency family and returns one error
// naming all mismatches, never stopping at the first: a partial report
// would hide how broken a load actually is.
func (v *Validator) ValidateLegacy(ctx context.Context, dataDir string) error {
	const component = "validate"

	mismatches := []string{}
	report := func(format string, args ...interface{}) {
		mismatch := fmt.Sprintf(format, args...)
		v.logger.Error(component, "inconsistencia: %s", mismatch)
		mismatches = append(mismatches, mismatch)
	}

	if err := v.checkReceita(ctx, dataDir, report); err != nil {
		return err
	}
	if err := v.checkDespesas(ctx, dataDir, report); err != nil {
		return err
	}
	if err := v.checkLicitacoes(ctx, dataDir, report); err != nil {
		return err
	}
	if err := v.checkContratosEFornecedores(ctx, dataDir, report); err != nil {
		return err
	}
	if err := v.checkServidores(ctx, dataDir, report); err != nil {
		return err
	}

	if len(mismatches) > 0 {
		return fmt.Errorf("validacao de consistencia falhou: %s", strings.Join(mismatches, "; "))
	}
	v.logger.Info(component, "todas as familias de agregados conferem")
	return nil
}

type reportFunc func(format string, args ...interface{})

func (v *Validator) readRows(dataDir, name string) ([]json.RawMessage, bool) {
	const component = "validate"

	raw, err := os.ReadFile(filepath.Join(dataDir, name))
	if err != nil {
		v.logger.Warn(component, "SKIP %s: %v", name, err)
		return nil, false
	}
	rows := connector.Rows(raw)
	if rows == nil {
		v.logger.Warn(component, "SKIP %s: payload nao reconhecido", name)
		return nil, false
	}
	return rows, true
}

func equal2(a, b decimal.Decimal) bool {
	return normalize.Round2(a).Equal(normalize.Round2(b))
}

func (v *Validator) checkReceita(ctx context.Context, dataDir string, report reportFunc) error {
	rows, ok := v.readRows(dataDir, pipeline.FileReceitas)
	if !ok {
		return nil
	}
	previsao := decimal.Zero
	arrecadacao := decimal.Zero
	for _, rec := range connector.DecodeRows[connector.ReceitaRow](rows) {
		// Same filter as the loader: undated rows count, other exercises
		// do not.
		if rec.Row.Exercicio != 0 && rec.Row.Exercicio != pipeline.ExercicioReferencia {
			continue
		}
		previsao = previsao.Add(normalize.Round2(rec.Row.PrevisaoAtualizada.Decimal))
		arrecadacao = arrecadacao.Add(normalize.Round2(rec.Row.Arrecadacao.Decimal))
	}

	receita, err := v.storage.Financas.GetReceita(ctx, pipeline.ExercicioReferencia)
	if err != nil {
		return err
	}
	if receita == nil {
		report("receita %d ausente no banco", pipeline.ExercicioReferencia)
		return nil
	}
	if !equal2(receita.PrevisaoAtualizada, previsao) {
		report("receita prevista: banco %s, arquivo %s",
			receita.PrevisaoAtualizada.StringFixed(2), previsao.StringFixed(2))
	}
	if !equal2(receita.Arrecadacao, arrecadacao) {
		report("receita arrecadada: banco %s, arquivo %s",
			receita.Arrecadacao.StringFixed(2), arrecadacao.StringFixed(2))
	}
	return nil
}

func (v *Validator) checkDespesas(ctx context.Context, dataDir string, report reportFunc) error {
	rows, ok := v.readRows(dataDir, pipeline.FileDespesas)
	if !ok {
		return nil
	}
	// Same grouping as the loader: last row per unit wins.
	porSecretaria := map[string]connector.DespesaRow{}
	for _, rec := range connector.DecodeRows[connector.DespesaRow](rows) {
		if rec.Row.Exercicio != pipeline.ExercicioReferencia {
			continue
		}
		nome := normalize.Text(rec.Row.Unidade)
		if nome == "" {
			continue
		}
		porSecretaria[nome] = rec.Row
	}
	esperadoOrcado := decimal.Zero
	esperadoEmpenhado := decimal.Zero
	esperadoLiquidado := decimal.Zero
	esperadoPago := decimal.Zero
	for _, row := range porSecretaria {
		esperadoOrcado = esperadoOrcado.Add(normalize.Round2(row.OrcadoAtualizado.Decimal))
		esperadoEmpenhado = esperadoEmpenhado.Add(normalize.Round2(row.Empenhado.Decimal))
		esperadoLiquidado = esperadoLiquidado.Add(normalize.Round2(row.Liquidado.Decimal))
		esperadoPago = esperadoPago.Add(normalize.Round2(row.Pago.Decimal))
	}

	despesas, err := v.storage.Financas.ListDespesas(ctx, pipeline.ExercicioReferencia)
	if err != nil {
		return err
	}
	if len(despesas) != len(porSecretaria) {
		report("despesas: banco tem %d secretarias, arquivo %d", len(despesas), len(porSecretaria))
	}
	bancoOrcado := decimal.Zero
	bancoEmpenhado := decimal.Zero
	bancoLiquidado := decimal.Zero
	bancoPago := decimal.Zero
	for _, despesa := range despesas {
		bancoOrcado = bancoOrcado.Add(despesa.Orcado)
		bancoEmpenhado = bancoEmpenhado.Add(despesa.Empenhado)
		bancoLiquidado = bancoLiquidado.Add(despesa.Liquidado)
		bancoPago = bancoPago.Add(despesa.Pago)
	}
	if !equal2(bancoOrcado, esperadoOrcado) {
		report("despesa orcada: banco %s, arquivo %s", bancoOrcado.StringFixed(2), esperadoOrcado.StringFixed(2))
	}
	if !equal2(bancoEmpenhado, esperadoEmpenhado) {
		report("despesa empenhada: banco %s, arquivo %s", bancoEmpenhado.StringFixed(2), esperadoEmpenhado.StringFixed(2))
	}
	if !equal2(bancoLiquidado, esperadoLiquidado) {
		report("despesa liquidada: banco %s, arquivo %s", bancoLiquidado.StringFixed(2), esperadoLiquidado.StringFixed(2))
	}
	if !equal2(bancoPago, esperadoPago) {
		report("despesa paga: banco %s, arquivo %s", bancoPago.StringFixed(2), esperadoPago.StringFixed(2))
	}
	return nil
}

func (v *Validator) checkLicitacoes(ctx context.Context, dataDir string, report reportFunc) error {
	rows, ok := v.readRows(dataDir, pipeline.FileLicitacoes)
	if !ok {
		return nil
	}
	// Values accumulate per certame, mirroring the loader's lot handling.
	porCertame := map[string]decimal.Decimal{}
	for _, rec := range connector.DecodeRows[connector.LicitacaoRow](rows) {
		certame := normalize.Text(rec.Row.Certame.String())
		if certame == "" {
			continue
		}
		porCertame[certame] = porCertame[certame].Add(normalize.Round2(rec.Row.ValorTotal.Decimal))
	}
	esperadoTotal := decimal.Zero
	for _, valor := range porCertame {
		esperadoTotal = esperadoTotal.Add(valor)
	}

	count, err := v.storage.Licitacoes.Count(ctx)
	if err != nil {
		return err
	}
	if count != len(porCertame) {
		report("licitacoes: banco tem %d, arquivo %d", count, len(porCertame))
	}
	total, err := v.storage.Licitacoes.Total(ctx)
	if err != nil {
		return err
	}
	if !equal2(total, esperadoTotal) {
		report("licitacoes valor total: banco %s, arquivo %s", total.StringFixed(2), esperadoTotal.StringFixed(2))
	}
	return nil
}

func (v *Validator) checkContratosEFornecedores(ctx context.Context, dataDir string, report reportFunc) error {
	rows, ok := v.readRows(dataDir, pipeline.FileContratos)
	if !ok {
		return nil
	}
	// Last row per (numero, empresa) wins, as in the upsert.
	type contratoChave struct{ numero, empresa string }
	porContrato := map[contratoChave]connector.ContratoRow{}
	for _, rec := range connector.DecodeRows[connector.ContratoRow](rows) {
		numero := normalize.Text(rec.Row.Numero.String())
		empresa := normalize.Text(rec.Row.Empresa)
		if numero == "" && empresa == "" {
			continue
		}
		porContrato[contratoChave{numero, empresa}] = rec.Row
	}
	esperadoTotal := decimal.Zero
	fornecedores := map[string]bool{}
	for chave, row := range porContrato {
		esperadoTotal = esperadoTotal.Add(normalize.Round2(row.Valor.Decimal))
		fornecedores[normalize.FornecedorKey(chave.empresa, row.CNPJ.String())] = true
	}

	count, err := v.storage.Contratos.Count(ctx)
	if err != nil {
		return err
	}
	if count != len(porContrato) {
		report("contratos: banco tem %d, arquivo %d", count, len(porContrato))
	}
	total, err := v.storage.Contratos.Total(ctx)
	if err != nil {
		return err
	}
	if !equal2(total, esperadoTotal) {
		report("contratos valor total: banco %s, arquivo %s", total.StringFixed(2), esperadoTotal.StringFixed(2))
	}

	fornCount, err := v.storage.Fornecedores.Count(ctx)
	if err != nil {
		return err
	}
	if fornCount != len(fornecedores) {
		report("fornecedores: banco tem %d, arquivo %d", fornCount, len(fornecedores))
	}
	fornTotal, err := v.storage.Fornecedores.Total(ctx)
	if err != nil {
		return err
	}
	if !equal2(fornTotal, esperadoTotal) {
		report("fornecedores valor total: banco %s, arquivo %s", fornTotal.StringFixed(2), esperadoTotal.StringFixed(2))
	}
	return nil
}

func (v *Validator) checkServidores(ctx context.Context, dataDir string, report reportFunc) error {
	raw, err := os.ReadFile(filepath.Join(dataDir, pipeline.FileServidores))
	if err != nil {
		v.logger.Warn("validate", "SKIP %s: %v", pipeline.FileServidores, err)
		return nil
	}
	var meses []connector.ServidorMes
	if err := json.Unmarshal(raw, &meses); err != nil {
		v.logger.Warn("validate", "SKIP %s: %v", pipeline.FileServidores, err)
		return nil
	}
	latest := -1
	for i, mes := range meses {
		if latest == -1 || mes.Mes > meses[latest].Mes {
			latest = i
		}
	}
	esperado := map[string]bool{}
	if latest != -1 {
		for _, rec := range connector.DecodeRows[connector.ServidorRow](meses[latest].Payload.Data) {
			nome := normalize.Text(rec.Row.Nome)
			if nome == "" {
				continue
			}
			orgao := normalize.Text(normalize.Orgao(rec.Row.Orgao))
			chave := normalize.ServidorKey(nome, orgao, normalize.Text(rec.Row.Vinculo), rec.Row.Matricula.String())
			esperado[chave] = true
		}
	}

	count, err := v.storage.Servidores.Count(ctx)
	if err != nil {
		return err
	}
	if count != len(esperado) {
		report("servidores: banco tem %d, arquivo %d", count, len(esperado))
	}
	return nil
}
