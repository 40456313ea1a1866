// Package dubizzle provides a client for the Dubizzle property inquiries API.
package dubizzle

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

// Client defines the Dubizzle operations used by the pipeline.
type Client interface {
	// Inquiries fetches buyer inquiries for a property category.
	Inquiries(ctx context.Context, category string) ([]Inquiry, error)
}

// Inquiry is a single buyer inquiry as returned by the API.
type Inquiry struct {
	BuyerName    string `json:"buyer_name"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	MaxBudget    int64  `json:"max_budget"`
	Neighborhood string `json:"neighborhood"`
	Category     string `json:"category"`
	Bedrooms     int    `json:"bedrooms"`
	AdURL        string `json:"ad_url"`
}

type inquiriesResponse struct {
	Results []Inquiry `json:"results"`
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

// NewClient creates a Dubizzle client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.dubizzle.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Inquiries(ctx context.Context, category string) ([]Inquiry, error) {
	reqURL := fmt.Sprintf("%s/v1/property-inquiries?category=%s", c.baseURL, url.QueryEscape(category))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "dubizzle: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "dubizzle: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "dubizzle: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("dubizzle: status %d: %s", resp.StatusCode, string(body))
	}

	var result inquiriesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "dubizzle: unmarshal response")
	}
	return result.Results, nil
}
