package crm

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmgate/leadgen-cli/internal/model"
)

type fakeNotionClient struct {
	created *notionapi.PageCreateRequest
}

func (f *fakeNotionClient) QueryDatabase(context.Context, string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{}, nil
}

func (f *fakeNotionClient) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.created = req
	return &notionapi.Page{ID: "page-1"}, nil
}

func (f *fakeNotionClient) UpdatePage(context.Context, string, *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return &notionapi.Page{}, nil
}

type fakeSFClient struct {
	inserted map[string]any
}

func (f *fakeSFClient) Query(context.Context, string, any) error { return nil }

func (f *fakeSFClient) InsertOne(_ context.Context, _ string, record map[string]any) (string, error) {
	f.inserted = record
	return "00Q000000000001", nil
}

func (f *fakeSFClient) UpdateOne(context.Context, string, string, map[string]any) error {
	return nil
}

func TestNotionSink_Upsert(t *testing.T) {
	t.Parallel()

	fake := &fakeNotionClient{}
	sink := NewNotionSink(fake, "db-1")

	ref, err := sink.Upsert(context.Background(), testLead())

	require.NoError(t, err)
	assert.Equal(t, "page-1", ref)
	require.NotNil(t, fake.created)
	assert.Contains(t, fake.created.Properties, "Score")
	assert.Contains(t, fake.created.Properties, "Verification")
}

func TestSalesforceSink_Upsert(t *testing.T) {
	t.Parallel()

	fake := &fakeSFClient{}
	sink := NewSalesforceSink(fake)

	ref, err := sink.Upsert(context.Background(), testLead())

	require.NoError(t, err)
	assert.Equal(t, "00Q000000000001", ref)
	require.NotNil(t, fake.inserted)
	assert.Equal(t, "Fatima Hassan", fake.inserted["LastName"])
	assert.Equal(t, int64(2_500_000), fake.inserted["Budget_AED__c"])
	assert.Equal(t, 8, fake.inserted["Score__c"])
}

func TestSalesforceSink_OmitsUnparsableNumbers(t *testing.T) {
	t.Parallel()

	fake := &fakeSFClient{}
	sink := NewSalesforceSink(fake)

	lead := testLead()
	delete(lead.Attributes, model.AttrBudget)
	lead.Attributes[model.AttrBedrooms] = "studio"

	_, err := sink.Upsert(context.Background(), lead)

	require.NoError(t, err)
	assert.NotContains(t, fake.inserted, "Budget_AED__c")
	assert.NotContains(t, fake.inserted, "Bedrooms__c")
}

func TestDisplayName_Fallback(t *testing.T) {
	t.Parallel()

	lead := testLead()
	delete(lead.Attributes, model.AttrName)
	assert.Equal(t, "Unknown Buyer", displayName(lead))
}

func TestScoreString(t *testing.T) {
	t.Parallel()

	lead := testLead()
	assert.Equal(t, "8", scoreString(lead))

	lead.Score = nil
	assert.Equal(t, "", scoreString(lead))
}
