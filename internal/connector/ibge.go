package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MunicipioContexto is the demographic/administrative snapshot assembled
// from IBGE sources. It is written to the context snapshot file, not to
// the reconciled store.
type MunicipioContexto struct {
	CodigoIBGE    string            `json:"codigo_ibge"`
	Nome          string            `json:"nome"`
	UF            string            `json:"uf"`
	Microrregiao  string            `json:"microrregiao"`
	PopulacaoInfo json.RawMessage   `json:"populacao_info,omitempty"`
	Indicadores   map[string]string `json:"indicadores"`
}

// IBGE pulls municipality context from the localidades API, the SIDRA
// population table and the cidades panorama page.
type IBGE struct {
	client          *Client
	localidadesBase string
	sidraBase       string
	cidadesBase     string
}

func NewIBGE(client *Client) *IBGE {
	return &IBGE{
		client:          client,
		localidadesBase: "https://servicodados.ibge.gov.br/api/v1/localidades",
		sidraBase:       "https://apisidra.ibge.gov.br/values",
		cidadesBase:     "https://cidades.ibge.gov.br/brasil",
	}
}

// Contexto assembles the municipality snapshot. Each source is optional:
// a failed SIDRA or panorama call degrades the snapshot instead of
// failing it, because context data is informative only.
func (i *IBGE) Contexto(ctx context.Context, codigoIBGE string) (*MunicipioContexto, error) {
	const component = "connector.ibge"

	payload, err := i.client.FetchJSON(ctx, fmt.Sprintf("%s/municipios/%s", i.localidadesBase, codigoIBGE), defaultTimeout)
	if err != nil {
		return nil, err
	}
	var municipio struct {
		Nome         string `json:"nome"`
		Microrregiao struct {
			Nome       string `json:"nome"`
			Mesorregia struct {
				UF struct {
					Sigla string `json:"sigla"`
				} `json:"UF"`
			} `json:"mesorregiao"`
		} `json:"microrregiao"`
	}
	if err := json.Unmarshal(payload, &municipio); err != nil {
		return nil, fmt.Errorf("localidades payload: %w", err)
	}

	out := &MunicipioContexto{
		CodigoIBGE:   codigoIBGE,
		Nome:         municipio.Nome,
		UF:           municipio.Microrregiao.Mesorregia.UF.Sigla,
		Microrregiao: municipio.Microrregiao.Nome,
		Indicadores:  map[string]string{},
	}

	// SIDRA table 6579: estimated resident population.
	popURL := fmt.Sprintf("%s/t/6579/n6/%s/v/9324/p/last", i.sidraBase, codigoIBGE)
	if pop, err := i.client.FetchJSON(ctx, popURL, defaultTimeout); err != nil {
		i.client.logger.Warn(component, "populacao sidra: %v", err)
	} else {
		out.PopulacaoInfo = pop
	}

	pageURL := fmt.Sprintf("%s/rn/%s/panorama", i.cidadesBase, slugify(municipio.Nome))
	if html, err := i.client.FetchHTML(ctx, pageURL, defaultTimeout); err != nil {
		i.client.logger.Warn(component, "panorama: %v", err)
	} else {
		out.Indicadores = ParseIndicadores(html)
	}
	return out, nil
}

// ParseIndicadores extracts the label/value indicator pairs from a
// cidades panorama page.
func ParseIndicadores(html string) map[string]string {
	indicadores := map[string]string{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return indicadores
	}
	doc.Find(".indicador").Each(func(_ int, sel *goquery.Selection) {
		label := strings.TrimSpace(sel.Find(".ind-label").First().Text())
		value := strings.TrimSpace(sel.Find(".ind-value").First().Text())
		if label != "" && value != "" {
			indicadores[label] = value
		}
	})
	return indicadores
}

func slugify(nome string) string {
	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "ã", "a", "â", "a",
		"é", "e", "ê", "e", "í", "i",
		"ó", "o", "õ", "o", "ô", "o",
		"ú", "u", "ç", "c",
	)
	slug := replacer.Replace(strings.ToLower(strings.TrimSpace(nome)))
	return strings.ReplaceAll(slug, " ", "-")
}
