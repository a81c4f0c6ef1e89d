package connector

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// Attempt records one probing try against an endpoint.
type Attempt struct {
	URL        string     `json:"url"`
	Params     url.Values `json:"params"`
	OK         bool       `json:"ok"`
	StatusCode int        `json:"status_code"`
	ErrorCode  string     `json:"error_code,omitempty"`
	Count      int        `json:"count"`
}

// ProbeResult is the outcome of probing an endpoint with candidate
// parameter sets. Attempts always holds the full history, successful
// or not.
type ProbeResult struct {
	OK       bool
	URL      string
	Params   url.Values
	Rows     []json.RawMessage
	Attempts []Attempt
}

// Probe tries an endpoint with each candidate parameter set in order and
// stops at the first response that returns a success status AND parses
// into a non-empty row list. Candidates whose calls fail, error out or
// come back empty are recorded and skipped; exhausting all candidates is
// not an error here, the caller decides what an empty result means.
func (c *Client) Probe(ctx context.Context, endpoint string, candidates []url.Values, timeout time.Duration) (ProbeResult, error) {
	const component = "connector"

	result := ProbeResult{}
	for _, params := range candidates {
		fullURL := withQuery(endpoint, params)
		resp, err := c.do(ctx, fullURL, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Attempts = append(result.Attempts, Attempt{URL: fullURL, Params: params, ErrorCode: "NETWORK"})
			c.logger.Warn(component, "probe %s: %v", fullURL, err)
			continue
		}
		attempt := Attempt{
			URL:        fullURL,
			Params:     params,
			OK:         resp.OK,
			StatusCode: resp.StatusCode,
			ErrorCode:  resp.ErrorCode,
			Count:      len(resp.Rows),
		}
		result.Attempts = append(result.Attempts, attempt)
		if resp.OK && len(resp.Rows) > 0 {
			result.OK = true
			result.URL = fullURL
			result.Params = params
			result.Rows = resp.Rows
			c.logger.Info(component, "probe %s: resolved with %d rows", endpoint, len(resp.Rows))
			return result, nil
		}
	}
	c.logger.Warn(component, "probe %s: no candidate produced rows after %d attempts", endpoint, len(result.Attempts))
	return result, nil
}
