// Package bayut provides a client for the Bayut buyer leads API.
package bayut

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Bayut operations used by the pipeline.
type Client interface {
	// Leads fetches buyer leads for a location and purpose (e.g. "for-sale").
	Leads(ctx context.Context, location, purpose string) ([]Lead, error)
}

// Lead is a single buyer lead as returned by the API. Bayut includes the
// listing's build status (off-plan or ready) alongside contact details.
type Lead struct {
	ContactName    string `json:"contact_name"`
	ContactEmail   string `json:"contact_email"`
	ContactPhone   string `json:"contact_phone"`
	Budget         int64  `json:"budget"`
	Area           string `json:"area"`
	Type           string `json:"type"`
	Beds           int    `json:"beds"`
	PropertyStatus string `json:"property_status"`
	URL            string `json:"url"`
}

type leadsResponse struct {
	Leads []Lead `json:"leads"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Bayut client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.bayut.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Leads(ctx context.Context, location, purpose string) ([]Lead, error) {
	reqURL := fmt.Sprintf("%s/leads?location=%s&purpose=%s",
		c.baseURL, url.QueryEscape(location), url.QueryEscape(purpose))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "bayut: create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "bayut: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "bayut: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("bayut: status %d: %s", resp.StatusCode, string(body))
	}

	var result leadsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "bayut: unmarshal response")
	}
	return result.Leads, nil
}
