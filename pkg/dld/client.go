// Package dld provides a client for the Dubai Land Department buyer registry
// lookup API, used to verify that a lead corresponds to a registered buyer.
package dld

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Verdict is the registry's answer for a lookup.
type Verdict string

const (
	// VerdictConfirmed means the registry matched the contact to a
	// registered buyer record.
	VerdictConfirmed Verdict = "CONFIRMED"
	// VerdictRejected means the registry found no matching record.
	VerdictRejected Verdict = "REJECTED"
	// VerdictUnavailable means the registry could not answer; callers
	// should treat the lead as unverifiable rather than rejected.
	VerdictUnavailable Verdict = "UNAVAILABLE"
)

// Client defines the registry operations used by the pipeline.
type Client interface {
	// Verify checks a contact against the buyer registry.
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error)
}

// VerifyRequest identifies the contact to check. At least one of Phone or
// Email should be set.
type VerifyRequest struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// VerifyResult is the registry's response.
type VerifyResult struct {
	Verdict Verdict `json:"verdict"`
	Detail  string  `json:"detail,omitempty"`
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

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) { c.http.Timeout = d }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a registry client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.dubailand.gov.ae",
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Verify(ctx context.Context, verifyReq VerifyRequest) (*VerifyResult, error) {
	payload, err := json.Marshal(verifyReq)
	if err != nil {
		return nil, eris.Wrap(err, "dld: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/buyer-registry/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "dld: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "dld: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "dld: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("dld: status %d: %s", resp.StatusCode, string(body))
	}

	var result VerifyResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "dld: unmarshal response")
	}
	switch result.Verdict {
	case VerdictConfirmed, VerdictRejected, VerdictUnavailable:
	default:
		return nil, eris.Errorf("dld: unknown verdict %q", result.Verdict)
	}
	return &result, nil
}
