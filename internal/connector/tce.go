package connector

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// The TCE-RN open-data API is slow on year-wide queries; anything under
// two minutes times out routinely.
const tceTimeout = 120 * time.Second

// Dataset paths under the audit court's base URL.
const (
	PathTCELicitacoes = "/licitacoes"
	PathTCEContratos  = "/contratos"
	PathTCEReceita    = "/receita-orcamentaria"
	PathTCEDespesa    = "/despesa-orcamentaria"
)

// TCE talks to the state audit court's (TCE-RN) open-data API, the
// independent source the municipal figures are cross-checked against.
type TCE struct {
	client    *Client
	baseURL   string
	municipio string
}

func NewTCE(client *Client, baseURL, codigoMunicipio string) *TCE {
	return &TCE{client: client, baseURL: baseURL, municipio: codigoMunicipio}
}

func (t *TCE) params(ano int) url.Values {
	return url.Values{
		"codigoMunicipio": []string{t.municipio},
		"anoReferencia":   []string{strconv.Itoa(ano)},
	}
}

func (t *TCE) Licitacoes(ctx context.Context, ano int) ([]Record[TCELicitacaoRow], error) {
	payload, err := t.client.FetchJSON(ctx, withQuery(t.baseURL+PathTCELicitacoes, t.params(ano)), tceTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[TCELicitacaoRow](Rows(payload)), nil
}

func (t *TCE) Contratos(ctx context.Context, ano int) ([]Record[TCEContratoRow], error) {
	payload, err := t.client.FetchJSON(ctx, withQuery(t.baseURL+PathTCEContratos, t.params(ano)), tceTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[TCEContratoRow](Rows(payload)), nil
}

func (t *TCE) Receita(ctx context.Context, ano int) ([]Record[TCEReceitaRow], error) {
	payload, err := t.client.FetchJSON(ctx, withQuery(t.baseURL+PathTCEReceita, t.params(ano)), tceTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[TCEReceitaRow](Rows(payload)), nil
}

func (t *TCE) Despesa(ctx context.Context, ano int) ([]Record[TCEDespesaRow], error) {
	payload, err := t.client.FetchJSON(ctx, withQuery(t.baseURL+PathTCEDespesa, t.params(ano)), tceTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[TCEDespesaRow](Rows(payload)), nil
}
