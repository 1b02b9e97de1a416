package match

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/facility-match/internal/model"
)

type foldedFacility struct {
	rec    *model.FacilityRecord
	county string
	state  string
	ok     bool
}

type foldedAccount struct {
	rec   *model.AccountRecord
	name  string
	state string
}

func foldFacility(folder cases.Caser, f *model.FacilityRecord) foldedFacility {
	return foldedFacility{
		rec:    f,
		county: folder.String(f.CountyName),
		state:  folder.String(f.StateName),
		ok:     f.Locatable(),
	}
}

func foldAccount(folder cases.Caser, a *model.AccountRecord) foldedAccount {
	return foldedAccount{
		rec:   a,
		name:  folder.String(a.Name),
		state: folder.String(a.BillingState),
	}
}

// Score grades a single facility/account pair. ok is false when the pair is
// not a candidate, including facilities without a county or state.
func Score(f model.FacilityRecord, a model.AccountRecord) (conf model.Confidence, ok bool) {
	folder := cases.Fold()
	return scorePair(foldFacility(folder, &f), foldAccount(folder, &a))
}

// scorePair applies the candidate rule and the four confidence tiers. All
// tests are unanchored substring containment on case-folded text, so a county
// that appears inside an unrelated word still matches.
func scorePair(f foldedFacility, a foldedAccount) (model.Confidence, bool) {
	if !f.ok {
		return model.ConfidenceNoMatch, false
	}

	hasCounty := strings.Contains(a.name, f.county)
	hasSheriff := strings.Contains(a.name, sheriff)
	sameState := a.state == f.state

	if !hasCounty && !(sameState && hasSheriff) {
		return model.ConfidenceNoMatch, false
	}

	hasState := strings.Contains(a.name, f.state)
	switch {
	case hasCounty && hasSheriff && (sameState || hasState):
		return model.ConfidenceHigh, true
	case hasCounty && hasState:
		return model.ConfidenceMedium, true
	case hasCounty:
		return model.ConfidenceLow, true
	default:
		return model.ConfidenceVeryLow, true
	}
}
