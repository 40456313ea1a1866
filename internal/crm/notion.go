package crm

import (
	"context"

	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/pkg/notion"
)

// NotionSink upserts leads as pages in a Notion database.
type NotionSink struct {
	client notion.Client
	dbID   string
}

// NewNotionSink creates the sink.
func NewNotionSink(client notion.Client, dbID string) *NotionSink {
	return &NotionSink{client: client, dbID: dbID}
}

func (s *NotionSink) Name() string { return "notion" }

func (s *NotionSink) Upsert(ctx context.Context, lead model.Lead) (string, error) {
	fields := map[string]string{
		"Source":        lead.Source,
		"Phone":         lead.Attr(model.AttrPhone),
		"Email":         lead.Attr(model.AttrEmail),
		"Budget":        lead.Attr(model.AttrBudget),
		"Area":          lead.Attr(model.AttrArea),
		"Property Type": lead.Attr(model.AttrPropertyType),
		"Bedrooms":      lead.Attr(model.AttrBedrooms),
		"Listing URL":   lead.Attr(model.AttrListingURL),
		"Score":         scoreString(lead),
		"Verification":  string(lead.Verification),
	}
	return notion.UpsertLead(ctx, s.client, s.dbID, lead.IdentityKey, displayName(lead), fields)
}
