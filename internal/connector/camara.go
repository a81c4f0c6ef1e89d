package connector

import (
	"context"
	"encoding/json"
	"net/url"
)

// Dataset paths under the council portal's base URL.
const (
	PathVereadores = "/legislativo/vereadores"
	PathMesa       = "/legislativo/mesadiretora"
	PathComissoes  = "/legislativo/comissoes"
)

// Camara talks to the city council's portal (also TopSolutions-hosted,
// different tenant).
type Camara struct {
	client  *Client
	baseURL string
}

func NewCamara(client *Client, baseURL string) *Camara {
	return &Camara{client: client, baseURL: baseURL}
}

func (c *Camara) Vereadores(ctx context.Context) ([]Record[VereadorRow], error) {
	payload, err := c.client.FetchJSON(ctx, c.baseURL+PathVereadores, defaultTimeout)
	if err != nil {
		return nil, err
	}
	return DecodeRows[VereadorRow](Rows(payload)), nil
}

// Mesa fetches the council board composition. Kept raw: it only feeds
// the context snapshot.
func (c *Camara) Mesa(ctx context.Context) (json.RawMessage, error) {
	return c.client.FetchJSON(ctx, c.baseURL+PathMesa, defaultTimeout)
}

// Comissoes fetches the standing committees, raw, for the context
// snapshot.
func (c *Camara) Comissoes(ctx context.Context) (json.RawMessage, error) {
	return c.client.FetchJSON(ctx, c.baseURL+PathComissoes, defaultTimeout)
}

// PortalCR2 talks to the Portal CR2 init/data endpoint, which returns
// the full legislative page state for a given location URL in one call.
type PortalCR2 struct {
	client   *Client
	endpoint string
}

func NewPortalCR2(client *Client) *PortalCR2 {
	return &PortalCR2{
		client:   client,
		endpoint: "https://www.portalcr2.com.br/api/1.1/init/data",
	}
}

// InitData fetches the raw init/data payload for a parlamentar page.
func (p *PortalCR2) InitData(ctx context.Context, location string) (json.RawMessage, error) {
	return p.client.FetchJSON(ctx, p.endpoint+"?location="+url.QueryEscape(location), defaultTimeout)
}
