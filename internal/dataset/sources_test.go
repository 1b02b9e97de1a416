package dataset

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/facility-match/internal/model"
	"github.com/sells-group/facility-match/pkg/salesforce"
)

type stubSF struct {
	soql     string
	accounts []salesforce.Account
	err      error
}

func (s *stubSF) Query(_ context.Context, soql string, out any) error {
	s.soql = soql
	if s.err != nil {
		return s.err
	}
	reflect.ValueOf(out).Elem().Set(reflect.ValueOf(s.accounts))
	return nil
}

func TestSalesforceAccounts(t *testing.T) {
	sf := &stubSF{accounts: []salesforce.Account{
		{ID: "001A", Name: "Travis County Sheriff", BillingState: "Texas", BillingCity: "Austin", Type: "Customer"},
	}}

	got, err := SalesforceAccounts{Client: sf}.FetchAccounts(context.Background(), "Sheriff")
	require.NoError(t, err)
	assert.Contains(t, sf.soql, "Name LIKE '%Sheriff%'")
	assert.Equal(t, []model.AccountRecord{
		{ID: "001A", Name: "Travis County Sheriff", BillingState: "Texas", BillingCity: "Austin", Type: "Customer"},
	}, got)
}

func TestSalesforceAccounts_Error(t *testing.T) {
	sf := &stubSF{err: errors.New("INVALID_SESSION_ID")}

	_, err := SalesforceAccounts{Client: sf}.FetchAccounts(context.Background(), "Sheriff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_SESSION_ID")
}
