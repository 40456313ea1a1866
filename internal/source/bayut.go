package source

import (
	"context"
	"strconv"
	"time"

	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/pkg/bayut"
)

const bayutName = "bayut"

// AttrPropertyStatus is set only by the Bayut adapter; the feed distinguishes
// ready units from off-plan.
const AttrPropertyStatus = "property_status"

// BayutAdapter fetches buyer leads from Bayut.
type BayutAdapter struct {
	client bayut.Client
	now    func() time.Time
}

// NewBayutAdapter creates the adapter.
func NewBayutAdapter(client bayut.Client) *BayutAdapter {
	return &BayutAdapter{client: client, now: time.Now}
}

func (a *BayutAdapter) Name() string { return bayutName }

func (a *BayutAdapter) Fetch(ctx context.Context) ([]model.Lead, error) {
	records, err := a.client.Leads(ctx, defaultLocation, "for-sale")
	if err != nil {
		return nil, &AdapterError{Adapter: a.Name(), Err: err}
	}

	leads := make([]model.Lead, 0, len(records))
	for _, rec := range records {
		attrs := map[string]string{
			model.AttrName:         rec.ContactName,
			model.AttrEmail:        rec.ContactEmail,
			model.AttrPhone:        rec.ContactPhone,
			model.AttrArea:         rec.Area,
			model.AttrPropertyType: rec.Type,
			model.AttrListingURL:   rec.URL,
			AttrPropertyStatus:     rec.PropertyStatus,
		}
		if rec.Budget > 0 {
			attrs[model.AttrBudget] = strconv.FormatInt(rec.Budget, 10)
		}
		if rec.Beds > 0 {
			attrs[model.AttrBedrooms] = strconv.Itoa(rec.Beds)
		}
		leads = append(leads, model.NewLead(a.Name(), attrs, a.now()))
	}
	return leads, nil
}
