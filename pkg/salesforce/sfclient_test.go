package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSFClient creates an sfClient backed by an httptest server.
func newTestSFClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	sf, err := gosf.Init(gosf.Creds{
		AccessToken: "test-token",
		Domain:      ts.URL,
	},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	require.NotNil(t, sf)

	return NewClient(sf, WithRateLimit(100))
}

func TestSFClient_FindAccountsByName(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/query")
		assert.Contains(t, r.URL.Query().Get("q"), "FROM Account")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 2,
			"done":      true,
			"records": []map[string]any{
				{
					"attributes":   map[string]any{"type": "Account"},
					"Id":           "001xx",
					"Name":         "Travis County Sheriff",
					"BillingState": "Texas",
					"BillingCity":  "Austin",
					"Type":         "Customer",
					"IsDeleted":    false,
				},
				{
					"attributes":   map[string]any{"type": "Account"},
					"Id":           "001yy",
					"Name":         "Harris County Sheriff",
					"BillingState": "Texas",
				},
			},
		})
	})

	client := newTestSFClient(t, handler)

	accounts, err := FindAccountsByName(context.Background(), client, "Sheriff")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "001xx", accounts[0].ID)
	assert.Equal(t, "Travis County Sheriff", accounts[0].Name)
	assert.Equal(t, "Austin", accounts[0].BillingCity)
	assert.Equal(t, "Customer", accounts[0].Type)
	assert.Equal(t, "Harris County Sheriff", accounts[1].Name)
}

func TestSFClient_Query_Error(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"message": "invalid SOQL", "errorCode": "MALFORMED_QUERY"},
		})
	})

	client := newTestSFClient(t, handler)

	var accounts []Account
	err := client.Query(context.Background(), "INVALID SOQL", &accounts)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sf: query")
}
