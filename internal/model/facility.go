// Package model defines the facility, account and match records shared by the
// warehouse readers, the matcher and the dashboard.
package model

import (
	"math"
	"strings"
)

// FacilityRecord is one row of the correctional facility registry.
type FacilityRecord struct {
	FacilityName  string   `json:"facility_name" yaml:"facility_name"`
	Notes         string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	StateName     string   `json:"state_name" yaml:"state_name"`
	CountyName    string   `json:"county_name" yaml:"county_name"`
	Population    *int     `json:"population" yaml:"population"`
	Latitude      *float64 `json:"latitude" yaml:"latitude"`
	Longitude     *float64 `json:"longitude" yaml:"longitude"`
	FullAddress   string   `json:"full_address" yaml:"full_address"`
	StateOperated bool     `json:"state_operated_flag" yaml:"state_operated_flag"`
}

// Mapped reports whether the facility has both coordinates. NaN and
// infinite values count as missing.
func (f FacilityRecord) Mapped() bool {
	return finite(f.Latitude) && finite(f.Longitude)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Locatable reports whether the facility carries the county and state needed
// for matching. Blank values count as missing.
func (f FacilityRecord) Locatable() bool {
	return strings.TrimSpace(f.CountyName) != "" && strings.TrimSpace(f.StateName) != ""
}

// AccountRecord is a CRM account as mirrored in the warehouse.
type AccountRecord struct {
	ID           string `json:"account_id" yaml:"account_id" salesforce:"Id"`
	Name         string `json:"account_name" yaml:"account_name" salesforce:"Name"`
	BillingState string `json:"billing_state" yaml:"billing_state" salesforce:"BillingState"`
	BillingCity  string `json:"billing_city" yaml:"billing_city" salesforce:"BillingCity"`
	Type         string `json:"account_type" yaml:"account_type" salesforce:"Type"`
	IsDeleted    bool   `json:"is_deleted" yaml:"is_deleted" salesforce:"IsDeleted"`
}
