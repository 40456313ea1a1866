package crm

import (
	"context"
	"strconv"

	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/pkg/salesforce"
)

// SalesforceSink upserts leads as Salesforce Lead records, matched on the
// external key custom field.
type SalesforceSink struct {
	client salesforce.Client
}

// NewSalesforceSink creates the sink.
func NewSalesforceSink(client salesforce.Client) *SalesforceSink {
	return &SalesforceSink{client: client}
}

func (s *SalesforceSink) Name() string { return "salesforce" }

func (s *SalesforceSink) Upsert(ctx context.Context, lead model.Lead) (string, error) {
	fields := map[string]any{
		"LastName":          displayName(lead),
		"Company":           "Individual Buyer",
		"LeadSource":        lead.Source,
		"Phone":             lead.Attr(model.AttrPhone),
		"Email":             lead.Attr(model.AttrEmail),
		"Preferred_Area__c": lead.Attr(model.AttrArea),
		"Property_Type__c":  lead.Attr(model.AttrPropertyType),
		"Verification__c":   string(lead.Verification),
	}
	if budget, err := strconv.ParseInt(lead.Attr(model.AttrBudget), 10, 64); err == nil {
		fields["Budget_AED__c"] = budget
	}
	if beds, err := strconv.Atoi(lead.Attr(model.AttrBedrooms)); err == nil {
		fields["Bedrooms__c"] = beds
	}
	if lead.Score != nil {
		fields["Score__c"] = *lead.Score
	}
	return salesforce.UpsertLead(ctx, s.client, lead.IdentityKey, fields)
}
