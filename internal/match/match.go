// Package match joins facilities to CRM accounts with tiered substring
// matching and keeps the single best account per facility.
package match

import (
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/sells-group/facility-match/internal/model"
)

// Ordering selects how ranked rows are ordered by confidence.
type Ordering string

const (
	// OrderLexical sorts confidence levels by their label text:
	// High, Low, Medium, No Match Found, Very Low.
	OrderLexical Ordering = "lexical"
	// OrderScore sorts confidence levels by score, best first.
	OrderScore Ordering = "score"
)

// Valid reports whether o names a known ordering.
func (o Ordering) Valid() bool {
	return o == OrderLexical || o == OrderScore
}

// Options configures Rank. The zero value ranks sequentially in lexical order
// and leaves account links empty.
type Options struct {
	Ordering Ordering
	// Workers > 1 scores facility groups in parallel.
	Workers int
	// Link builds the account link from an account ID.
	Link func(accountID string) string
}

const sheriff = "sheriff"

// Rank returns one row per distinct facility name, carrying the best account
// candidate and its confidence. Accounts are expected to be pre-filtered with
// EligibleAccounts. Rank is a pure function of its inputs.
func Rank(facilities []model.FacilityRecord, accounts []model.AccountRecord, opts Options) []model.MatchedRow {
	folder := cases.Fold()

	ff := make([]foldedFacility, len(facilities))
	for i := range facilities {
		ff[i] = foldFacility(folder, &facilities[i])
	}
	fa := make([]foldedAccount, len(accounts))
	for i := range accounts {
		fa[i] = foldAccount(folder, &accounts[i])
	}

	groups := groupByName(facilities)
	rows := make([]model.MatchedRow, len(groups))

	rankGroup := func(i int) {
		rows[i] = bestRow(groups[i], ff, fa, opts.Link)
	}

	if opts.Workers > 1 && len(groups) > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range groups {
			g.Go(func() error {
				rankGroup(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range groups {
			rankGroup(i)
		}
	}

	sortRows(rows, opts.Ordering)
	return rows
}

// EligibleAccounts drops deleted accounts and keeps those whose name contains
// nameFilter, compared case-insensitively.
func EligibleAccounts(accounts []model.AccountRecord, nameFilter string) []model.AccountRecord {
	folder := cases.Fold()
	needle := folder.String(nameFilter)

	out := make([]model.AccountRecord, 0, len(accounts))
	for _, a := range accounts {
		if a.IsDeleted {
			continue
		}
		if !strings.Contains(folder.String(a.Name), needle) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// candidate is a scored facility/account pair. Indexes point into the
// folded slices.
type candidate struct {
	facility int
	account  int
	conf     model.Confidence
}

// bestRow picks the winning pair for a group of facilities sharing a name.
func bestRow(members []int, ff []foldedFacility, fa []foldedAccount, link func(string) string) model.MatchedRow {
	var best *candidate
	for _, fi := range members {
		for ai := range fa {
			conf, ok := scorePair(ff[fi], fa[ai])
			if !ok {
				continue
			}
			c := candidate{facility: fi, account: ai, conf: conf}
			if best == nil || better(c, *best, fa) {
				best = &c
			}
		}
	}

	if best == nil {
		return model.MatchedRow{
			FacilityRecord: *ff[members[0]].rec,
			Score:          model.NoMatchScore,
			Confidence:     model.ConfidenceNoMatch,
		}
	}

	acct := *fa[best.account].rec
	row := model.MatchedRow{
		FacilityRecord: *ff[best.facility].rec,
		Account:        &acct,
		Score:          best.conf.Score(),
		Confidence:     best.conf,
	}
	if link != nil && acct.ID != "" {
		row.AccountLink = link(acct.ID)
	}
	return row
}

// better reports whether a beats b: lower score, then account name, then
// account ID. Equal pairs keep the earlier one.
func better(a, b candidate, fa []foldedAccount) bool {
	if sa, sb := a.conf.Score(), b.conf.Score(); sa != sb {
		return sa < sb
	}
	na, nb := fa[a.account].rec.Name, fa[b.account].rec.Name
	if na != nb {
		return na < nb
	}
	return fa[a.account].rec.ID < fa[b.account].rec.ID
}

// groupByName buckets facility indexes by facility name, in first-seen order.
func groupByName(facilities []model.FacilityRecord) [][]int {
	index := make(map[string]int, len(facilities))
	var groups [][]int
	for i, f := range facilities {
		g, ok := index[f.FacilityName]
		if !ok {
			g = len(groups)
			index[f.FacilityName] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func sortRows(rows []model.MatchedRow, ordering Ordering) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Confidence != b.Confidence {
			if ordering == OrderScore {
				return a.Confidence.Score() < b.Confidence.Score()
			}
			return a.Confidence.String() < b.Confidence.String()
		}
		if a.StateName != b.StateName {
			return a.StateName < b.StateName
		}
		if a.CountyName != b.CountyName {
			return a.CountyName < b.CountyName
		}
		return a.FacilityName < b.FacilityName
	})
}
