// Package propertyfinder provides a client for the Property Finder buyer
// inquiries API.
package propertyfinder

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

// Client defines the Property Finder operations used by the pipeline.
type Client interface {
	// Inquiries fetches recent buyer inquiries for a location and category.
	Inquiries(ctx context.Context, location, category string) ([]Inquiry, error)
}

// Inquiry is a single buyer inquiry as returned by the API.
type Inquiry struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	BudgetAED     int64  `json:"budget_aed"`
	PreferredArea string `json:"preferred_area"`
	PropertyType  string `json:"property_type"`
	Bedrooms      int    `json:"bedrooms"`
	ListingURL    string `json:"listing_url"`
}

type inquiriesResponse struct {
	Inquiries []Inquiry `json:"inquiries"`
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

// NewClient creates a Property Finder client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.propertyfinder.ae",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Inquiries(ctx context.Context, location, category string) ([]Inquiry, error) {
	reqURL := fmt.Sprintf("%s/v2/inquiries?location=%s&category=%s",
		c.baseURL, url.QueryEscape(location), url.QueryEscape(category))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "propertyfinder: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "propertyfinder: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "propertyfinder: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("propertyfinder: status %d: %s", resp.StatusCode, string(body))
	}

	var result inquiriesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "propertyfinder: unmarshal response")
	}
	return result.Inquiries, nil
}
