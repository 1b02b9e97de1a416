package model

// MatchedRow is a facility joined to its best CRM account, if any.
type MatchedRow struct {
	FacilityRecord `yaml:",inline"`

	Account     *AccountRecord `json:"account" yaml:"account"`
	Score       int            `json:"match_score" yaml:"match_score"`
	Confidence  Confidence     `json:"match_confidence" yaml:"match_confidence"`
	AccountLink string         `json:"account_link,omitempty" yaml:"account_link,omitempty"`
}

// AccountName returns the matched account name, or "" when unmatched.
func (r MatchedRow) AccountName() string {
	if r.Account == nil {
		return ""
	}
	return r.Account.Name
}

// AccountID returns the matched account ID, or "" when unmatched.
func (r MatchedRow) AccountID() string {
	if r.Account == nil {
		return ""
	}
	return r.Account.ID
}
