package source

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/pkg/bayut"
	"github.com/palmgate/leadgen-cli/pkg/dubizzle"
	"github.com/palmgate/leadgen-cli/pkg/propertyfinder"
)

type fakePFClient struct {
	inquiries []propertyfinder.Inquiry
	err       error
}

func (f *fakePFClient) Inquiries(context.Context, string, string) ([]propertyfinder.Inquiry, error) {
	return f.inquiries, f.err
}

type fakeBayutClient struct {
	leads []bayut.Lead
	err   error
}

func (f *fakeBayutClient) Leads(context.Context, string, string) ([]bayut.Lead, error) {
	return f.leads, f.err
}

type fakeDubizzleClient struct {
	inquiries []dubizzle.Inquiry
	err       error
}

func (f *fakeDubizzleClient) Inquiries(context.Context, string) ([]dubizzle.Inquiry, error) {
	return f.inquiries, f.err
}

func fixedNow() time.Time {
	return time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
}

func TestPropertyFinderAdapter_Fetch(t *testing.T) {
	t.Parallel()

	adapter := NewPropertyFinderAdapter(&fakePFClient{
		inquiries: []propertyfinder.Inquiry{
			{
				Name:          "Fatima Hassan",
				Email:         "fatima@example.com",
				Phone:         "+971501234567",
				BudgetAED:     2_500_000,
				PreferredArea: "Dubai Marina",
				PropertyType:  "apartment",
				Bedrooms:      2,
				ListingURL:    "https://www.propertyfinder.ae/listing/1234",
			},
		},
	})
	adapter.now = fixedNow

	leads, err := adapter.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, leads, 1)
	lead := leads[0]
	assert.Equal(t, "property_finder", lead.Source)
	assert.Equal(t, "Fatima Hassan", lead.Attr(model.AttrName))
	assert.Equal(t, "2500000", lead.Attr(model.AttrBudget))
	assert.Equal(t, "2", lead.Attr(model.AttrBedrooms))
	assert.Equal(t, model.VerificationUnverified, lead.Verification)
	assert.Equal(t, fixedNow(), lead.CreatedAt)
}

func TestPropertyFinderAdapter_FetchError(t *testing.T) {
	t.Parallel()

	adapter := NewPropertyFinderAdapter(&fakePFClient{err: eris.New("boom")})

	_, err := adapter.Fetch(context.Background())

	require.Error(t, err)
	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, "property_finder", adapterErr.Adapter)
}

func TestBayutAdapter_Fetch(t *testing.T) {
	t.Parallel()

	adapter := NewBayutAdapter(&fakeBayutClient{
		leads: []bayut.Lead{
			{
				ContactName:    "Omar Khalid",
				ContactPhone:   "+971529876543",
				Budget:         1_800_000,
				Area:           "Jumeirah Village Circle",
				Type:           "townhouse",
				Beds:           3,
				PropertyStatus: "ready",
			},
		},
	})
	adapter.now = fixedNow

	leads, err := adapter.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "bayut", leads[0].Source)
	assert.Equal(t, "townhouse", leads[0].Attr(model.AttrPropertyType))
	assert.Equal(t, "ready", leads[0].Attr(AttrPropertyStatus))
}

func TestDubizzleAdapter_Fetch(t *testing.T) {
	t.Parallel()

	adapter := NewDubizzleAdapter(&fakeDubizzleClient{
		inquiries: []dubizzle.Inquiry{
			{
				BuyerName:    "Layla Ahmed",
				Mobile:       "+971551112222",
				MaxBudget:    950_000,
				Neighborhood: "International City",
				Category:     "apartment",
				Bedrooms:     1,
			},
		},
	})
	adapter.now = fixedNow

	leads, err := adapter.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "dubizzle", leads[0].Source)
	assert.Equal(t, "International City", leads[0].Attr(model.AttrArea))
	assert.Equal(t, "950000", leads[0].Attr(model.AttrBudget))
}

func TestAdapter_MissingOptionalFields(t *testing.T) {
	t.Parallel()

	adapter := NewPropertyFinderAdapter(&fakePFClient{
		inquiries: []propertyfinder.Inquiry{{Name: "No Contact"}},
	})
	adapter.now = fixedNow

	leads, err := adapter.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Empty(t, leads[0].Attr(model.AttrBudget))
	assert.Empty(t, leads[0].Attr(model.AttrBedrooms))
}
