// Package source adapts external lead feeds to a common interface. Each
// adapter normalizes one feed's records into leads; failure isolation, rate
// limiting and deduplication are the scrape stage's job, not the adapter's.
package source

import (
	"context"
	"fmt"

	"github.com/palmgate/leadgen-cli/internal/model"
)

// Adapter fetches raw leads from one external feed.
type Adapter interface {
	// Name identifies the adapter in reports and lead provenance.
	Name() string
	// Fetch returns the feed's current leads. An error fails this adapter
	// only; other adapters are unaffected.
	Fetch(ctx context.Context) ([]model.Lead, error)
}

// AdapterError wraps a fetch failure with the adapter that produced it.
type AdapterError struct {
	Adapter string
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Adapter, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
