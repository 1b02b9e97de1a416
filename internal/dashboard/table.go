package dashboard

import "github.com/sells-group/facility-match/internal/model"

// TableColumns are the display table headings, in order.
var TableColumns = []string{
	"Facility Name", "County", "State", "Inmate Pop.",
	"Salesforce Account", "Salesforce Link", "Address",
}

// TableRow is one line of the display table.
type TableRow struct {
	FacilityName string `json:"facility_name"`
	County       string `json:"county"`
	State        string `json:"state"`
	Population   *int   `json:"inmate_population"`
	AccountName  string `json:"salesforce_account,omitempty"`
	AccountLink  string `json:"salesforce_link,omitempty"`
	Address      string `json:"address"`
}

// TableRows projects rows onto the display columns.
func TableRows(rows []model.MatchedRow) []TableRow {
	out := make([]TableRow, len(rows))
	for i, r := range rows {
		out[i] = TableRow{
			FacilityName: r.FacilityName,
			County:       r.CountyName,
			State:        r.StateName,
			Population:   r.Population,
			AccountName:  r.AccountName(),
			AccountLink:  r.AccountLink,
			Address:      r.FullAddress,
		}
	}
	return out
}
