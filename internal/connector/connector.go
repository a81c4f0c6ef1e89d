package connector

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
)

const defaultTimeout = 60 * time.Second

// Error carries everything the run tracker needs to record about a failed
// upstream call: the final URL, the HTTP status, the portal's own error
// code when one was present in the body, and the probing attempt history.
type Error struct {
	URL        string
	StatusCode int
	ErrorCode  string
	Body       string
	Attempts   []Attempt
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connector: %s: %v", e.URL, e.Err)
	}
	if e.ErrorCode != "" {
		return fmt.Sprintf("connector: %s: status %d (%s)", e.URL, e.StatusCode, e.ErrorCode)
	}
	return fmt.Sprintf("connector: %s: status %d", e.URL, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client is the shared HTTP layer for every upstream portal. A single
// limiter throttles all requests; the portals are small municipal hosts
// and burst traffic gets sessions dropped.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

func NewClient(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Every(250*time.Millisecond), 2),
		logger:     log,
	}
}

// Response is the outcome of a single fetch, successful or not. Probing
// needs failures as values rather than errors.
type Response struct {
	URL        string
	OK         bool
	StatusCode int
	ErrorCode  string
	Payload    json.RawMessage
	Rows       []json.RawMessage
}

func (c *Client) do(ctx context.Context, rawURL string, timeout time.Duration) (Response, error) {
	const component = "connector"

	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Response{URL: rawURL}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{URL: rawURL}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) transparencia-tibau/1.0")
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")

	c.logger.Debug(component, "GET %s", rawURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{URL: rawURL}, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return Response{URL: rawURL, StatusCode: resp.StatusCode}, err
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return Response{URL: rawURL, StatusCode: resp.StatusCode}, err
	}

	out := Response{
		URL:        rawURL,
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
	}
	if json.Valid(body) {
		out.Payload = json.RawMessage(body)
		out.Rows = Rows(out.Payload)
		if !out.OK {
			out.ErrorCode = portalErrorCode(out.Payload)
		}
	} else if !out.OK {
		out.ErrorCode = "NON_JSON"
	} else {
		out.Payload = json.RawMessage(body)
	}
	return out, nil
}

// FetchJSON fetches a URL and fails on any non-2xx status or transport
// error, returning a *Error with the portal's detail when available.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, timeout time.Duration) (json.RawMessage, error) {
	resp, err := c.do(ctx, rawURL, timeout)
	if err != nil {
		return nil, &Error{URL: rawURL, ErrorCode: "NETWORK", Err: err}
	}
	if !resp.OK {
		return nil, &Error{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			ErrorCode:  resp.ErrorCode,
			Body:       clip(string(resp.Payload), 500),
		}
	}
	return resp.Payload, nil
}

// FetchHTML fetches a URL expected to return an HTML document.
func (c *Client) FetchHTML(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	resp, err := c.do(ctx, rawURL, timeout)
	if err != nil {
		return "", &Error{URL: rawURL, ErrorCode: "NETWORK", Err: err}
	}
	if !resp.OK {
		return "", &Error{URL: rawURL, StatusCode: resp.StatusCode, ErrorCode: resp.ErrorCode}
	}
	return string(resp.Payload), nil
}

// Rows extracts the record list from a payload that is either a bare
// JSON array or an object wrapping the array under "data". Any other
// shape yields nil.
func Rows(payload json.RawMessage) []json.RawMessage {
	var direct []json.RawMessage
	if err := json.Unmarshal(payload, &direct); err == nil {
		return direct
	}
	var wrapped struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data
	}
	return nil
}

// portalErrorCode digs the portal's own error identifier out of an error
// body ({"metadata": {"message": "..."}}).
func portalErrorCode(payload json.RawMessage) string {
	var body struct {
		Metadata struct {
			Message string `json:"message"`
		} `json:"metadata"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Metadata.Message != "" {
		return body.Metadata.Message
	}
	return body.Message
}

func clip(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}

func withQuery(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + params.Encode()
}
