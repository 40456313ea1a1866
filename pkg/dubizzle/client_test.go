package dubizzle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInquiries_Success(t *testing.T) {
	t.Parallel()

	want := inquiriesResponse{
		Results: []Inquiry{
			{
				BuyerName:    "Layla Ahmed",
				Email:        "layla@example.com",
				Mobile:       "+971551112222",
				MaxBudget:    950_000,
				Neighborhood: "International City",
				Category:     "apartment",
				Bedrooms:     1,
				AdURL:        "https://dubai.dubizzle.com/property-for-sale/residential/9012",
			},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/v1/property-inquiries", r.URL.Path)
		assert.Equal(t, "apartment", r.URL.Query().Get("category"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Inquiries(context.Background(), "apartment")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want.Results[0], got[0])
}

func TestInquiries_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.Inquiries(context.Background(), "villa")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestInquiries_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Inquiries(context.Background(), "villa")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}
