package source

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmgate/leadgen-cli/internal/model"
)

func testFeedAdapter() *CSVFeedAdapter {
	a := NewCSVFeedAdapter("ftp.partner.ae:21", "user", "pass", "/exports/leads.csv")
	a.now = func() time.Time { return time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC) }
	return a
}

func TestCSVFeed_Parse(t *testing.T) {
	t.Parallel()

	data := `name,email,phone,budget,area,property_type,bedrooms,listing_url
Fatima Hassan,fatima@example.com,+971501234567,2500000,Dubai Marina,apartment,2,https://example.com/1
Omar Khalid,,+971529876543,1800000,JVC,townhouse,3,
`
	leads, err := testFeedAdapter().parse(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "csv_feed", leads[0].Source)
	assert.Equal(t, "Fatima Hassan", leads[0].Attr(model.AttrName))
	assert.Equal(t, "2500000", leads[0].Attr(model.AttrBudget))

	// Empty cells produce absent attributes, not empty strings.
	_, hasEmail := leads[1].Attributes[model.AttrEmail]
	assert.False(t, hasEmail)
}

func TestCSVFeed_Parse_UnknownColumnsIgnored(t *testing.T) {
	t.Parallel()

	data := `name,phone,internal_score
Layla Ahmed,+971551112222,42
`
	leads, err := testFeedAdapter().parse(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "+971551112222", leads[0].Attr(model.AttrPhone))
	assert.Len(t, leads[0].Attributes, 2)
}

func TestCSVFeed_Parse_SkipsMalformedRows(t *testing.T) {
	t.Parallel()

	data := `name,phone
Good Row,+971501111111
Short Row
`
	leads, err := testFeedAdapter().parse(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Good Row", leads[0].Attr(model.AttrName))
}

func TestCSVFeed_Parse_HeaderCaseInsensitive(t *testing.T) {
	t.Parallel()

	data := `Name, Phone
Case Test,+971502222222
`
	leads, err := testFeedAdapter().parse(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Case Test", leads[0].Attr(model.AttrName))
}

func TestCSVFeed_Parse_EmptyFile(t *testing.T) {
	t.Parallel()

	_, err := testFeedAdapter().parse(strings.NewReader(""))
	require.Error(t, err)
}
