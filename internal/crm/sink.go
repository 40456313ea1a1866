// Package crm pushes qualified leads into the configured CRM systems. Every
// sink upserts on the lead's identity key, so re-running a sync is idempotent
// and never duplicates records.
package crm

import (
	"context"
	"strconv"

	"github.com/palmgate/leadgen-cli/internal/model"
)

// Sink is one CRM destination.
type Sink interface {
	// Name identifies the sink in reports and per-lead sync results.
	Name() string
	// Upsert creates or updates the record for the lead and returns a
	// sink-specific record reference.
	Upsert(ctx context.Context, lead model.Lead) (string, error)
}

// scoreString renders the lead's score, or "" when qualification never ran.
func scoreString(lead model.Lead) string {
	if lead.Score == nil {
		return ""
	}
	return strconv.Itoa(*lead.Score)
}

// displayName returns the lead's name attribute, or a placeholder so sinks
// that require a title still accept the record.
func displayName(lead model.Lead) string {
	if name := lead.Attr(model.AttrName); name != "" {
		return name
	}
	return "Unknown Buyer"
}
