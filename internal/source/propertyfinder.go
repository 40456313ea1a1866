package source

import (
	"context"
	"strconv"
	"time"

	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/pkg/propertyfinder"
)

const propertyFinderName = "property_finder"

// defaultLocation and defaultCategory scope portal queries to the market
// this pipeline serves.
const (
	defaultLocation = "Dubai"
	defaultCategory = "residential"
)

// PropertyFinderAdapter fetches buyer inquiries from Property Finder.
type PropertyFinderAdapter struct {
	client propertyfinder.Client
	now    func() time.Time
}

// NewPropertyFinderAdapter creates the adapter.
func NewPropertyFinderAdapter(client propertyfinder.Client) *PropertyFinderAdapter {
	return &PropertyFinderAdapter{client: client, now: time.Now}
}

func (a *PropertyFinderAdapter) Name() string { return propertyFinderName }

func (a *PropertyFinderAdapter) Fetch(ctx context.Context) ([]model.Lead, error) {
	inquiries, err := a.client.Inquiries(ctx, defaultLocation, defaultCategory)
	if err != nil {
		return nil, &AdapterError{Adapter: a.Name(), Err: err}
	}

	leads := make([]model.Lead, 0, len(inquiries))
	for _, inq := range inquiries {
		attrs := map[string]string{
			model.AttrName:         inq.Name,
			model.AttrEmail:        inq.Email,
			model.AttrPhone:        inq.Phone,
			model.AttrArea:         inq.PreferredArea,
			model.AttrPropertyType: inq.PropertyType,
			model.AttrListingURL:   inq.ListingURL,
		}
		if inq.BudgetAED > 0 {
			attrs[model.AttrBudget] = strconv.FormatInt(inq.BudgetAED, 10)
		}
		if inq.Bedrooms > 0 {
			attrs[model.AttrBedrooms] = strconv.Itoa(inq.Bedrooms)
		}
		leads = append(leads, model.NewLead(a.Name(), attrs, a.now()))
	}
	return leads, nil
}
