// Package warehouse reads the facility registry and the CRM account mirror
// from the analytics warehouse, and bootstraps those tables for local use.
package warehouse

import (
	"context"
	"math"
	"strings"

	"github.com/sells-group/facility-match/internal/model"
)

// Warehouse is the read side used by the dataset service plus the
// bootstrap operations used by the CLI.
type Warehouse interface {
	// FetchFacilities returns every facility row.
	FetchFacilities(ctx context.Context) ([]model.FacilityRecord, error)
	// FetchAccounts returns non-deleted accounts whose name contains
	// nameFilter, case-insensitively.
	FetchAccounts(ctx context.Context, nameFilter string) ([]model.AccountRecord, error)

	Migrate(ctx context.Context) error
	// ReplaceFacilities swaps the facility table contents for records.
	ReplaceFacilities(ctx context.Context, records []model.FacilityRecord) (int64, error)
	// ReplaceAccounts swaps the account table contents for records.
	ReplaceAccounts(ctx context.Context, records []model.AccountRecord) (int64, error)
	Close() error
}

// Tables names the source tables, optionally schema-qualified.
type Tables struct {
	Facilities string
	Accounts   string
}

// DefaultTables mirrors the warehouse layout the dashboard was built against.
var DefaultTables = Tables{
	Facilities: "google_sheets.local_state_correctional",
	Accounts:   "salesforce.account",
}

var facilityColumns = []string{
	"facility_name", "notes", "statename", "countyname", "instpop",
	"latitude", "longitude", "full_address", "so_operated_flag",
}

var accountColumns = []string{
	"id", "name", "billing_state", "billing_city", "type", "is_deleted",
}

// flatName turns "schema.table" into "schema_table" for engines without schemas.
func flatName(table string) string {
	return strings.ReplaceAll(table, ".", "_")
}

// coordinate returns v when it is a usable number. NULL, NaN and infinities
// are absent.
func coordinate(v float64, valid bool) *float64 {
	if !valid || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func facilityRow(f model.FacilityRecord) []any {
	var pop any
	if f.Population != nil {
		pop = int64(*f.Population)
	}
	var lat, lon any
	if f.Latitude != nil {
		lat = *f.Latitude
	}
	if f.Longitude != nil {
		lon = *f.Longitude
	}
	return []any{
		f.FacilityName, f.Notes, f.StateName, f.CountyName, pop,
		lat, lon, f.FullAddress, f.StateOperated,
	}
}

func accountRow(a model.AccountRecord) []any {
	return []any{a.ID, a.Name, a.BillingState, a.BillingCity, a.Type, a.IsDeleted}
}
