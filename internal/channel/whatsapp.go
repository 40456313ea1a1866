package channel

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/internal/resilience"
)

// WhatsAppChannel sends messages through the Twilio WhatsApp API.
type WhatsAppChannel struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	http       *http.Client
}

// WhatsAppOption configures the channel.
type WhatsAppOption func(*WhatsAppChannel)

// WithWhatsAppBaseURL sets a custom API base URL (for testing).
func WithWhatsAppBaseURL(u string) WhatsAppOption {
	return func(c *WhatsAppChannel) { c.baseURL = u }
}

// NewWhatsAppChannel creates the channel. from is the Twilio sender number
// in E.164 form (e.g. "+14155238886").
func NewWhatsAppChannel(accountSID, authToken, from string, opts ...WhatsAppOption) *WhatsAppChannel {
	c := &WhatsAppChannel{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    "https://api.twilio.com",
		http:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

func (c *WhatsAppChannel) Accepts(lead model.Lead) bool {
	return lead.Attr(model.AttrPhone) != ""
}

func (c *WhatsAppChannel) Send(ctx context.Context, lead model.Lead, message string) error {
	phone := lead.Attr(model.AttrPhone)
	if phone == "" {
		return eris.New("whatsapp: lead has no phone")
	}

	form := url.Values{}
	form.Set("From", "whatsapp:"+c.from)
	form.Set("To", "whatsapp:"+phone)
	form.Set("Body", message)

	endpoint := c.baseURL + "/2010-04-01/Accounts/" + c.accountSID + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return eris.Wrap(err, "whatsapp: create request")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "whatsapp: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		sendErr := eris.Errorf("whatsapp: status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.MarkTransient(sendErr, resp.StatusCode)
		}
		return sendErr
	}
	return nil
}
