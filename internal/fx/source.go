package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultFetchTimeout bounds a single request to the rate source
const DefaultFetchTimeout = 10 * time.Second

// maxBodySize caps how much of the rate response is read
const maxBodySize = 1 << 20

type ratesResponse struct {
	Base  string `json:"base"`
	Rates Rates  `json:"rates"`
}

// HTTPSource reads a JSON document with a "rates" object from a URL
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for rawURL. When appID is set it is sent as
// the app_id query parameter.
func NewHTTPSource(rawURL, appID string, timeout time.Duration) (*HTTPSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid rate source url: %w", err)
	}
	if appID != "" {
		q := u.Query()
		q.Set("app_id", appID)
		u.RawQuery = q.Encode()
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	return &HTTPSource{
		url:    u.String(),
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Fetch performs the GET and decodes the rates object
func (s *HTTPSource) Fetch(ctx context.Context) (Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if body.Rates == nil {
		return nil, errors.New("response has no rates object")
	}

	return body.Rates, nil
}

// StaticSource always returns the same table
type StaticSource Rates

func (s StaticSource) Fetch(ctx context.Context) (Rates, error) {
	return Rates(s), nil
}
