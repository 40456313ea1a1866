// Package channel delivers outreach messages to qualified leads. Channels
// never decide eligibility beyond their own contact requirements; the
// communication stage owns the qualified-and-synced gate.
package channel

import (
	"context"

	"github.com/palmgate/leadgen-cli/internal/model"
)

// Channel is one outreach delivery mechanism.
type Channel interface {
	// Name identifies the channel in reports and per-lead send results.
	Name() string
	// Accepts reports whether the lead carries the contact details this
	// channel needs. A false return means skip, not failure.
	Accepts(lead model.Lead) bool
	// Send delivers the rendered message to the lead.
	Send(ctx context.Context, lead model.Lead, message string) error
}
