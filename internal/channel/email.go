package channel

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/palmgate/leadgen-cli/internal/model"
)

// sendMailFunc matches smtp.SendMail; injected for tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel sends messages over SMTP with STARTTLS plain auth.
type EmailChannel struct {
	host     string
	port     int
	username string
	password string
	from     string
	subject  string
	send     sendMailFunc
}

// NewEmailChannel creates the channel.
func NewEmailChannel(host string, port int, username, password, from, subject string) *EmailChannel {
	return &EmailChannel{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		subject:  subject,
		send:     smtp.SendMail,
	}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Accepts(lead model.Lead) bool {
	return lead.Attr(model.AttrEmail) != ""
}

func (c *EmailChannel) Send(ctx context.Context, lead model.Lead, message string) error {
	to := lead.Attr(model.AttrEmail)
	if to == "" {
		return eris.New("email: lead has no email address")
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "email: context")
	}

	msg := c.buildMessage(to, message)
	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	auth := smtp.PlainAuth("", c.username, c.password, c.host)

	if err := c.send(addr, auth, c.from, []string{to}, msg); err != nil {
		return eris.Wrap(err, "email: send")
	}
	return nil
}

func (c *EmailChannel) buildMessage(to, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", c.subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
