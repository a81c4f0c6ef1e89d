package connector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Dataset paths under the municipal portal's base URL. Exported so
// provenance rows can name the endpoint each record came from.
const (
	PathReceitas       = "/receita/receitaprevisaoarrecadacao"
	PathDespesas       = "/despesa/despesaunidadeorcamentaria"
	PathLicitacoes     = "/licitacao/licitacoes"
	PathContratos      = "/contrato/contratos"
	PathEmendas        = "/emenda/emendas"
	PathOrcamento      = "/orcamento/dotacoes"
	PathFolhaPagamento = "/folhapagamento/folhapagamentoasync"
)

// Prefeitura talks to the municipality's TopSolutions transparency API.
// The portal exposes one endpoint per dataset, all returning either a
// bare JSON list or a {"data": [...]} wrapper.
type Prefeitura struct {
	client  *Client
	baseURL string
}

func NewPrefeitura(client *Client, baseURL string) *Prefeitura {
	return &Prefeitura{client: client, baseURL: baseURL}
}

func exercicioParams(exercicio int) url.Values {
	return url.Values{"numExercicioFinanc": []string{strconv.Itoa(exercicio)}}
}

func (p *Prefeitura) Receitas(ctx context.Context, exercicio int) ([]Record[ReceitaRow], error) {
	payload, err := p.client.FetchJSON(ctx, withQuery(p.baseURL+PathReceitas, exercicioParams(exercicio)), defaultTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[ReceitaRow](Rows(payload)), nil
}

func (p *Prefeitura) Despesas(ctx context.Context, exercicio int) ([]Record[DespesaRow], error) {
	payload, err := p.client.FetchJSON(ctx, withQuery(p.baseURL+PathDespesas, exercicioParams(exercicio)), defaultTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[DespesaRow](Rows(payload)), nil
}

func (p *Prefeitura) Licitacoes(ctx context.Context, exercicio int) ([]Record[LicitacaoRow], error) {
	payload, err := p.client.FetchJSON(ctx, withQuery(p.baseURL+PathLicitacoes, exercicioParams(exercicio)), defaultTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[LicitacaoRow](Rows(payload)), nil
}

func (p *Prefeitura) Contratos(ctx context.Context, exercicio int) ([]Record[ContratoRow], error) {
	payload, err := p.client.FetchJSON(ctx, withQuery(p.baseURL+PathContratos, exercicioParams(exercicio)), defaultTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[ContratoRow](Rows(payload)), nil
}

func (p *Prefeitura) Emendas(ctx context.Context, exercicio int) ([]Record[EmendaRow], error) {
	payload, err := p.client.FetchJSON(ctx, withQuery(p.baseURL+PathEmendas, exercicioParams(exercicio)), defaultTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[EmendaRow](Rows(payload)), nil
}

func (p *Prefeitura) Orcamento(ctx context.Context, exercicio int) ([]Record[OrcamentoRow], error) {
	payload, err := p.client.FetchJSON(ctx, withQuery(p.baseURL+PathOrcamento, exercicioParams(exercicio)), defaultTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[OrcamentoRow](Rows(payload)), nil
}

// Servidores probes the payroll endpoint. The portal renamed its month
// and year parameters at least twice, so the candidates cover every
// convention seen in the wild, newest first.
func (p *Prefeitura) Servidores(ctx context.Context, exercicio, mes int) ([]Record[ServidorRow], ProbeResult, error) {
	year := strconv.Itoa(exercicio)
	month := strconv.Itoa(mes)
	candidates := []url.Values{
		{"numExercicioFinanc": []string{year}, "numMes": []string{month}},
		{"exercicio": []string{year}, "mes": []string{month}},
		{"ano": []string{year}, "mes": []string{month}},
	}
	result, err := p.client.Probe(ctx, p.baseURL+PathFolhaPagamento, candidates, 120*time.Second)
	if err != nil {
		return nil, result, err
	}
	if !result.OK {
		return nil, result, fmt.Errorf("folha de pagamento %d/%d: no parameter candidate produced rows", mes, exercicio)
	}
	return DecodeRows[ServidorRow](result.Rows), result, nil
}

// Operacionais probes the operational datasets (diárias, obras, PCA)
// whose parameter conventions are undocumented. Results feed the context
// snapshot only.
func (p *Prefeitura) Operacionais(ctx context.Context, exercicio int) map[string]ProbeResult {
	year := strconv.Itoa(exercicio)
	candidates := []url.Values{
		{"numExercicioFinanc": []string{year}},
		{"exercicio": []string{year}},
		{"ano": []string{year}},
	}
	endpoints := map[string]string{
		"diarias": "/diaria/diarias",
		"obras":   "/obra/obras",
		"pca":     "/pca/planocontratacoes",
	}
	results := make(map[string]ProbeResult, len(endpoints))
	for name, path := range endpoints {
		result, err := p.client.Probe(ctx, p.baseURL+path, candidates, defaultTimeout)
		if err != nil {
			return results
		}
		results[name] = result
	}
	return results
}
