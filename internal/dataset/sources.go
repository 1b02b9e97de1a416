package dataset

import (
	"context"

	"github.com/sells-group/facility-match/internal/model"
	"github.com/sells-group/facility-match/pkg/salesforce"
)

// SalesforceAccounts reads accounts live from Salesforce instead of the
// warehouse mirror.
type SalesforceAccounts struct {
	Client salesforce.Client
}

var _ AccountSource = SalesforceAccounts{}

// FetchAccounts runs a name search against the Account object.
func (s SalesforceAccounts) FetchAccounts(ctx context.Context, nameFilter string) ([]model.AccountRecord, error) {
	accounts, err := salesforce.FindAccountsByName(ctx, s.Client, nameFilter)
	if err != nil {
		return nil, err
	}
	out := make([]model.AccountRecord, len(accounts))
	for i, a := range accounts {
		out[i] = model.AccountRecord{
			ID:           a.ID,
			Name:         a.Name,
			BillingState: a.BillingState,
			BillingCity:  a.BillingCity,
			Type:         a.Type,
			IsDeleted:    a.IsDeleted,
		}
	}
	return out, nil
}
