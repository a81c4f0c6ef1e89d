package risk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/pipeline"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// Alert thresholds. Share comparisons are strict: hitting a threshold
// exactly does not fire.
var (
	concentracaoLimite   = decimal.NewFromInt(60)     // % of contracted value in top-5 suppliers
	execucaoGlobalMinima = decimal.NewFromInt(50)     // % paid of budgeted, whole municipality
	execucaoSecMinima    = decimal.NewFromInt(20)     // % paid of budgeted, per secretaria
	execucaoSecPiso      = decimal.NewFromInt(100000) // budget floor for the per-secretaria rule
	emendaExecucaoMinima = decimal.NewFromInt(30)     // % paid of forecast amendment value
	semCNPJLimite        = decimal.NewFromInt(30)     // % of contracts with no tax id
	semRemuneracaoLimite = decimal.NewFromInt(5)      // % of payroll with zero gross pay
	comissionadosLimite  = decimal.NewFromInt(20)     // % of payroll under commissioned ties
	outlierFator         = decimal.NewFromInt(3)      // multiple of the mean contract value
)

var cem = decimal.NewFromInt(100)

// Engine derives the full alert set from the reconciled store. Every
// scan replaces the previous set; alerts are findings over current
// data, not an event log.
type Engine struct {
	storage *store.Storage
	logger  *logger.Logger
}

func New(storage *store.Storage, log *logger.Logger) *Engine {
	return &Engine{storage: storage, logger: log}
}

func (e *Engine) GenerateAlerts(ctx context.Context) (int, error) {
	const component = "risk"

	alertas := []store.Alerta{}
	add := func(codigo, titulo, severidade, format string, args ...interface{}) {
		alertas = append(alertas, store.Alerta{
			Codigo:     codigo,
			Titulo:     titulo,
			Descricao:  fmt.Sprintf(format, args...),
			Severidade: severidade,
			CriadoEm:   time.Now(),
		})
	}

	if err := e.concentracaoFornecedores(ctx, add); err != nil {
		return 0, err
	}
	if err := e.execucaoOrcamentaria(ctx, add); err != nil {
		return 0, err
	}
	if err := e.execucaoEmendas(ctx, add); err != nil {
		return 0, err
	}
	if err := e.contratosSemCNPJ(ctx, add); err != nil {
		return 0, err
	}
	if err := e.contratosForaDaCurva(ctx, add); err != nil {
		return 0, err
	}
	if err := e.servidoresSemRemuneracao(ctx, add); err != nil {
		return 0, err
	}
	if err := e.resumoLicitacoes(ctx, add); err != nil {
		return 0, err
	}
	if err := e.comissionados(ctx, add); err != nil {
		return 0, err
	}

	if err := e.storage.Alertas.ReplaceAll(ctx, alertas); err != nil {
		return 0, err
	}
	e.logger.Info(component, "varredura concluida: %d alertas", len(alertas))
	return len(alertas), nil
}

type addFunc func(codigo, titulo, severidade, format string, args ...interface{})

// concentracaoFornecedores fires when the top five suppliers hold over
// 60% of all contracted value.
func (e *Engine) concentracaoFornecedores(ctx context.Context, add addFunc) error {
	total, err := e.storage.Fornecedores.Total(ctx)
	if err != nil {
		return err
	}
	if !total.IsPositive() {
		return nil
	}
	top, err := e.storage.Fornecedores.List(ctx, store.ListOptions{Limit: 5})
	if err != nil {
		return err
	}
	topTotal := decimal.Zero
	nomes := make([]string, 0, len(top))
	for _, fornecedor := range top {
		topTotal = topTotal.Add(fornecedor.ValorTotal)
		nomes = append(nomes, fornecedor.Nome)
	}
	pct := topTotal.Mul(cem).Div(total)
	if pct.GreaterThan(concentracaoLimite) {
		add("CONC-FORN-001", "Concentração de fornecedores acima de 60%", store.SeveridadeAlta,
			"Os 5 maiores fornecedores concentram %s%% (R$ %s) do total contratado (R$ %s). Top: %s.",
			pct.StringFixed(2), topTotal.StringFixed(2), total.StringFixed(2),
			strings.Join(nomes, ", "))
	}
	return nil
}

// execucaoOrcamentaria covers the global EXEC-ORC-001 rule (paid under
// half of the budget) and the per-secretaria EXEC-SEC series (under 20%
// paid on budgets above the floor).
func (e *Engine) execucaoOrcamentaria(ctx context.Context, add addFunc) error {
	despesas, err := e.storage.Financas.ListDespesas(ctx, pipeline.ExercicioReferencia)
	if err != nil {
		return err
	}
	totalOrcado := decimal.Zero
	totalPago := decimal.Zero
	for _, despesa := range despesas {
		totalOrcado = totalOrcado.Add(despesa.Orcado)
		totalPago = totalPago.Add(despesa.Pago)
	}
	if !totalOrcado.IsPositive() {
		return nil
	}

	pct := totalPago.Mul(cem).Div(totalOrcado)
	if pct.LessThan(execucaoGlobalMinima) {
		add("EXEC-ORC-001", "Execução orçamentária abaixo de 50%", store.SeveridadeAlta,
			"A execução financeira está em %s%% (R$ %s pago de R$ %s orçado).",
			pct.StringFixed(2), totalPago.StringFixed(2), totalOrcado.StringFixed(2))
	}

	for _, despesa := range despesas {
		if !despesa.Orcado.IsPositive() {
			continue
		}
		secPct := despesa.Pago.Mul(cem).Div(despesa.Orcado)
		if secPct.LessThan(execucaoSecMinima) && despesa.Orcado.GreaterThan(execucaoSecPiso) {
			add(fmt.Sprintf("EXEC-SEC-%03d", despesa.ID), "Baixa execução: "+despesa.Secretaria,
				store.SeveridadeMedia,
				"Execução de apenas %s%% (R$ %s de R$ %s).",
				secPct.StringFixed(2), despesa.Pago.StringFixed(2), despesa.Orcado.StringFixed(2))
		}
	}
	return nil
}

// execucaoEmendas flags the amendment portfolio when less than 30% of
// the forecast value was paid.
func (e *Engine) execucaoEmendas(ctx context.Context, add addFunc) error {
	totalPrevisto := decimal.Zero
	totalPago := decimal.Zero
	quantidade := 0
	// Paged read: the portfolio can outgrow a single page.
	opts := store.ListOptions{Limit: 1000}
	for {
		emendas, err := e.storage.Financas.ListEmendas(ctx, opts)
		if err != nil {
			return err
		}
		for _, emenda := range emendas {
			if emenda.Ano != pipeline.ExercicioReferencia {
				continue
			}
			totalPrevisto = totalPrevisto.Add(emenda.ValorPrevisto)
			totalPago = totalPago.Add(emenda.Pago)
			quantidade++
		}
		if len(emendas) < opts.Limit {
			break
		}
		opts.Offset += len(emendas)
	}
	if !totalPrevisto.IsPositive() {
		return nil
	}
	pct := totalPago.Mul(cem).Div(totalPrevisto)
	if pct.LessThan(emendaExecucaoMinima) {
		add("EMENDA-EXEC-001", "Baixa execução de emendas parlamentares", store.SeveridadeMedia,
			"Apenas %s%% das emendas foram pagas (R$ %s de R$ %s), em %d emendas registradas.",
			pct.StringFixed(2), totalPago.StringFixed(2), totalPrevisto.StringFixed(2), quantidade)
	}
	return nil
}

// contratosSemCNPJ fires when over 30% of the contracts carry no tax id.
func (e *Engine) contratosSemCNPJ(ctx context.Context, add addFunc) error {
	semCNPJ, err := e.storage.Contratos.CountSemCNPJ(ctx)
	if err != nil {
		return err
	}
	if semCNPJ == 0 {
		return nil
	}
	total, err := e.storage.Contratos.Count(ctx)
	if err != nil {
		return err
	}
	pct := decimal.NewFromInt(int64(semCNPJ)).Mul(cem).Div(decimal.NewFromInt(int64(total)))
	if pct.GreaterThan(semCNPJLimite) {
		add("CONT-CNPJ-001", "Contratos sem CNPJ identificado", store.SeveridadeMedia,
			"%d de %d contratos (%s%%) não possuem CNPJ registrado.",
			semCNPJ, total, pct.StringFixed(2))
	}
	return nil
}

// contratosForaDaCurva flags contracts worth strictly more than three
// times the mean contract value.
func (e *Engine) contratosForaDaCurva(ctx context.Context, add addFunc) error {
	valores, err := e.storage.Contratos.Valores(ctx)
	if err != nil {
		return err
	}
	if len(valores) == 0 {
		return nil
	}
	amostra := make([]float64, len(valores))
	for i, valor := range valores {
		amostra[i] = valor.InexactFloat64()
	}
	media := stat.Mean(amostra, nil)
	limite := decimal.NewFromFloat(media).Mul(outlierFator)

	foraDaCurva := 0
	for _, valor := range valores {
		if valor.GreaterThan(limite) {
			foraDaCurva++
		}
	}
	if foraDaCurva > 0 {
		add("CONT-VALOR-001", "Contratos com valor 3x acima da média", store.SeveridadeAlta,
			"%d contratos possuem valor superior a 3x a média de R$ %.2f.", foraDaCurva, media)
	}
	return nil
}

// servidoresSemRemuneracao fires when over 5% of the payroll shows zero
// gross pay.
func (e *Engine) servidoresSemRemuneracao(ctx context.Context, add addFunc) error {
	semRemuneracao, err := e.storage.Servidores.CountBrutoZero(ctx)
	if err != nil {
		return err
	}
	if semRemuneracao == 0 {
		return nil
	}
	total, err := e.storage.Servidores.Count(ctx)
	if err != nil {
		return err
	}
	pct := decimal.NewFromInt(int64(semRemuneracao)).Mul(cem).Div(decimal.NewFromInt(int64(total)))
	if pct.GreaterThan(semRemuneracaoLimite) {
		add("SERV-SAL-001", "Servidores com remuneração zerada", store.SeveridadeMedia,
			"%d servidores (%s%%) possuem remuneração bruta igual a zero.",
			semRemuneracao, pct.StringFixed(2))
	}
	return nil
}

// resumoLicitacoes is an informational alert emitted whenever the base
// has any procurement notices at all.
func (e *Engine) resumoLicitacoes(ctx context.Context, add addFunc) error {
	total, err := e.storage.Licitacoes.Count(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	homologadas, err := e.storage.Licitacoes.CountSituacaoContains(ctx, "homologada")
	if err != nil {
		return err
	}
	valorTotal, err := e.storage.Licitacoes.Total(ctx)
	if err != nil {
		return err
	}
	add("LICIT-INFO-001", fmt.Sprintf("%d licitações registradas no sistema", total),
		store.SeveridadeBaixa,
		"Base possui %d licitações, sendo %d homologadas. Valor total orçado: R$ %s.",
		total, homologadas, valorTotal.StringFixed(2))
	return nil
}

// comissionados fires when commissioned/appointed posts pass 20% of the
// payroll. The tie classification is a text heuristic over the vinculo
// field, matching the exports' naming habits.
func (e *Engine) comissionados(ctx context.Context, add addFunc) error {
	total, err := e.storage.Servidores.Count(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	vinculos, err := e.storage.Servidores.Vinculos(ctx)
	if err != nil {
		return err
	}
	comissionados := 0
	for vinculo, quantidade := range vinculos {
		lowered := strings.ToLower(vinculo)
		if strings.Contains(lowered, "comission") ||
			strings.Contains(lowered, "cc") ||
			strings.Contains(lowered, "cargo") {
			comissionados += quantidade
		}
	}
	if comissionados == 0 {
		return nil
	}
	pct := decimal.NewFromInt(int64(comissionados)).Mul(cem).Div(decimal.NewFromInt(int64(total)))
	if pct.GreaterThan(comissionadosLimite) {
		add("SERV-CC-001", "Proporção elevada de cargos comissionados", store.SeveridadeAlta,
			"%d servidores comissionados (%s%% do total de %d).",
			comissionados, pct.StringFixed(2), total)
	}
	return nil
}
