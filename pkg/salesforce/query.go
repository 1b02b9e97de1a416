package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Account represents the Salesforce Account fields used for facility matching.
type Account struct {
	ID           string `json:"Id" salesforce:"Id"`
	Name         string `json:"Name" salesforce:"Name"`
	BillingState string `json:"BillingState" salesforce:"BillingState"`
	BillingCity  string `json:"BillingCity" salesforce:"BillingCity"`
	Type         string `json:"Type" salesforce:"Type"`
	IsDeleted    bool   `json:"IsDeleted" salesforce:"IsDeleted"`
}

// accountFields are the SOQL fields selected for Account queries.
var accountFields = []string{
	"Id", "Name", "BillingState", "BillingCity", "Type", "IsDeleted",
}

// FindAccountsByName returns the live accounts whose name contains substr.
// SOQL LIKE is case-insensitive.
func FindAccountsByName(ctx context.Context, c Client, substr string) ([]Account, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Account WHERE Name LIKE '%%%s%%' AND IsDeleted = false ORDER BY Name",
		strings.Join(accountFields, ", "),
		escapeSoqlLike(substr),
	)

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find accounts by name %s", substr))
	}
	return accounts, nil
}

// RecordLink returns the Lightning URL for a record on host,
// e.g. https://acme.lightning.force.com/001xx.
func RecordLink(host, id string) string {
	host = strings.TrimSuffix(host, "/")
	if !strings.HasPrefix(host, "https://") && !strings.HasPrefix(host, "http://") {
		host = "https://" + host
	}
	return host + "/" + id
}

// RecordLinker binds RecordLink to a host.
func RecordLinker(host string) func(id string) string {
	return func(id string) string { return RecordLink(host, id) }
}

// escapeSoqlLike escapes quotes, backslashes and LIKE wildcards in a SOQL
// string literal.
func escapeSoqlLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
