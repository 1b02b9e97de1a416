// Package dashboard turns ranked facility rows into the views the dashboard
// shows: filtered rows, option lists, summary metrics, the map layer, the
// display table and file exports.
package dashboard

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/facility-match/internal/model"
)

// All is the option value that disables a filter field.
const All = "All"

// Filter narrows rows by state, county and facility name text.
type Filter struct {
	State  string `json:"state,omitempty"`
	County string `json:"county,omitempty"`
	Search string `json:"q,omitempty"`
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != All
}

// Apply returns the rows that pass every active field, in input order.
// State and county compare exactly and are disabled by All; search is
// case-insensitive containment on the facility name and is disabled only
// when blank.
func (f Filter) Apply(rows []model.MatchedRow) []model.MatchedRow {
	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(f.Search))

	out := make([]model.MatchedRow, 0, len(rows))
	for _, r := range rows {
		if active(f.State) && r.StateName != f.State {
			continue
		}
		if active(f.County) && r.CountyName != f.County {
			continue
		}
		if needle != "" && !strings.Contains(folder.String(r.FacilityName), needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// OptionLists holds the selectable values for the state and county filters.
type OptionLists struct {
	States   []string `json:"states"`
	Counties []string `json:"counties"`
}

// Options lists the distinct states, and the counties within state (or every
// county when state is inactive). Each list starts with All.
func Options(rows []model.MatchedRow, state string) OptionLists {
	states := map[string]struct{}{}
	counties := map[string]struct{}{}
	for _, r := range rows {
		if r.StateName != "" {
			states[r.StateName] = struct{}{}
		}
		if r.CountyName == "" {
			continue
		}
		if active(state) && r.StateName != state {
			continue
		}
		counties[r.CountyName] = struct{}{}
	}
	return OptionLists{States: withAll(states), Counties: withAll(counties)}
}

func withAll(set map[string]struct{}) []string {
	out := make([]string, 0, len(set)+1)
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return append([]string{All}, out...)
}
