package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/internal/resilience"
)

// WebhookChannel posts qualified leads to an automation endpoint (n8n,
// Zapier or similar). It accepts every lead; the receiving workflow decides
// how to route contacts.
type WebhookChannel struct {
	url       string
	authToken string
	http      *http.Client
}

// webhookPayload is the JSON body posted per lead.
type webhookPayload struct {
	IdentityKey string `json:"identity_key"`
	Source      string `json:"source"`
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Area        string `json:"area,omitempty"`
	Score       *int   `json:"score,omitempty"`
	Message     string `json:"message"`
}

// NewWebhookChannel creates the channel. authToken, when set, is sent as a
// Bearer token.
func NewWebhookChannel(url, authToken string) *WebhookChannel {
	return &WebhookChannel{
		url:       url,
		authToken: authToken,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Accepts(model.Lead) bool { return true }

func (c *WebhookChannel) Send(ctx context.Context, lead model.Lead, message string) error {
	payload := webhookPayload{
		IdentityKey: lead.IdentityKey,
		Source:      lead.Source,
		Name:        lead.Attr(model.AttrName),
		Phone:       lead.Attr(model.AttrPhone),
		Email:       lead.Attr(model.AttrEmail),
		Area:        lead.Attr(model.AttrArea),
		Score:       lead.Score,
		Message:     message,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "webhook: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "webhook: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "webhook: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		sendErr := eris.Errorf("webhook: status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.MarkTransient(sendErr, resp.StatusCode)
		}
		return sendErr
	}
	return nil
}
