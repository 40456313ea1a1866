package source

import (
	"context"
	"strconv"
	"time"

	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/pkg/dubizzle"
)

const dubizzleName = "dubizzle"

// DubizzleAdapter fetches property inquiries from Dubizzle.
type DubizzleAdapter struct {
	client dubizzle.Client
	now    func() time.Time
}

// NewDubizzleAdapter creates the adapter.
func NewDubizzleAdapter(client dubizzle.Client) *DubizzleAdapter {
	return &DubizzleAdapter{client: client, now: time.Now}
}

func (a *DubizzleAdapter) Name() string { return dubizzleName }

func (a *DubizzleAdapter) Fetch(ctx context.Context) ([]model.Lead, error) {
	inquiries, err := a.client.Inquiries(ctx, defaultCategory)
	if err != nil {
		return nil, &AdapterError{Adapter: a.Name(), Err: err}
	}

	leads := make([]model.Lead, 0, len(inquiries))
	for _, inq := range inquiries {
		attrs := map[string]string{
			model.AttrName:         inq.BuyerName,
			model.AttrEmail:        inq.Email,
			model.AttrPhone:        inq.Mobile,
			model.AttrArea:         inq.Neighborhood,
			model.AttrPropertyType: inq.Category,
			model.AttrListingURL:   inq.AdURL,
		}
		if inq.MaxBudget > 0 {
			attrs[model.AttrBudget] = strconv.FormatInt(inq.MaxBudget, 10)
		}
		if inq.Bedrooms > 0 {
			attrs[model.AttrBedrooms] = strconv.Itoa(inq.Bedrooms)
		}
		leads = append(leads, model.NewLead(a.Name(), attrs, a.now()))
	}
	return leads, nil
}
