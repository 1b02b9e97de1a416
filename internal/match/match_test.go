package match

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/facility-match/internal/model"
)

func facility(name, county, state string) model.FacilityRecord {
	return model.FacilityRecord{FacilityName: name, CountyName: county, StateName: state}
}

func account(id, name, state string) model.AccountRecord {
	return model.AccountRecord{ID: id, Name: name, BillingState: state}
}

func testLink(id string) string { return "https://crm.example.com/" + id }

func TestRank_TravisHighConfidence(t *testing.T) {
	facilities := []model.FacilityRecord{facility("Travis County Jail", "Travis", "Texas")}
	accounts := []model.AccountRecord{
		account("001A", "Travis County Sheriff", "Texas"),
		account("001B", "Travis Water District", "Texas"),
	}

	rows := Rank(facilities, accounts, Options{Link: testLink})
	require.Len(t, rows, 1)
	assert.Equal(t, "Travis County Sheriff", rows[0].AccountName())
	assert.Equal(t, 1, rows[0].Score)
	assert.Equal(t, model.ConfidenceHigh, rows[0].Confidence)
	assert.Equal(t, "https://crm.example.com/001A", rows[0].AccountLink)
}

func TestRank_OrangeIgnoresNonCandidate(t *testing.T) {
	facilities := []model.FacilityRecord{facility("Orange County Jail", "Orange", "California")}
	accounts := []model.AccountRecord{
		account("002A", "Orange County Sheriff Office", "California"),
		account("002B", "Orange Savings Bank", "Florida"),
	}

	// The bank contains the county name, so it is scored too, but it cannot beat
	// the sheriff's office. Scored alone against a non-matching county it is
	// not a candidate at all.
	rows := Rank(facilities, accounts, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "002A", rows[0].AccountID())
	assert.Equal(t, model.ConfidenceHigh, rows[0].Confidence)

	_, ok := Score(facility("Pike Jail", "Pike", "California"), accounts[1])
	assert.False(t, ok)
}

func TestRank_NoMatchFound(t *testing.T) {
	facilities := []model.FacilityRecord{facility("Remote Facility", "Loving", "Texas")}
	accounts := []model.AccountRecord{account("003A", "Kings County Sheriff", "New York")}

	rows := Rank(facilities, accounts, Options{Link: testLink})
	require.Len(t, rows, 1)
	assert.Equal(t, model.ConfidenceNoMatch, rows[0].Confidence)
	assert.Equal(t, model.NoMatchScore, rows[0].Score)
	assert.Nil(t, rows[0].Account)
	assert.Empty(t, rows[0].AccountLink)
	assert.Equal(t, "Remote Facility", rows[0].FacilityName)
}

func TestRank_TieBreakAlphabetical(t *testing.T) {
	facilities := []model.FacilityRecord{facility("Cook Jail", "Cook", "Illinois")}
	accounts := []model.AccountRecord{
		account("004B", "Cook County Sheriff Zone B", "Illinois"),
		account("004A", "Cook County Sheriff Annex", "Illinois"),
	}

	rows := Rank(facilities, accounts, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "Cook County Sheriff Annex", rows[0].AccountName())
	assert.Equal(t, model.ConfidenceHigh, rows[0].Confidence)
}

func TestRank_TieBreakSameNameUsesID(t *testing.T) {
	facilities := []model.FacilityRecord{facility("Cook Jail", "Cook", "Illinois")}
	accounts := []model.AccountRecord{
		account("004Z", "Cook County Sheriff", "Illinois"),
		account("004C", "Cook County Sheriff", "Illinois"),
	}

	rows := Rank(facilities, accounts, Options{})
	assert.Equal(t, "004C", rows[0].AccountID())
}

func TestRank_LowerScoreBeatsAlphabetical(t *testing.T) {
	facilities := []model.FacilityRecord{facility("Dane Jail", "Dane", "Wisconsin")}
	accounts := []model.AccountRecord{
		account("005A", "Aardvark Sheriff Supply", "Wisconsin"),  // very low
		account("005B", "Dane Sheriff Wisconsin", "Minnesota"),  // high via name
		account("005C", "Dane County Sheriff Assoc", "Illinois"), // low
	}

	rows := Rank(facilities, accounts, Options{})
	assert.Equal(t, "005B", rows[0].AccountID())
	assert.Equal(t, model.ConfidenceHigh, rows[0].Confidence)
}

func TestScore_Tiers(t *testing.T) {
	f := facility("X", "Adams", "Ohio")
	tests := []struct {
		name    string
		account model.AccountRecord
		want    model.Confidence
		ok      bool
	}{
		{"high via billing state", account("1", "Adams County Sheriff", "OHIO"), model.ConfidenceHigh, true},
		{"high via state in name", account("2", "Adams Sheriff of Ohio", "Indiana"), model.ConfidenceHigh, true},
		{"medium", account("3", "Adams Ohio Deputies", "Indiana"), model.ConfidenceMedium, true},
		{"low", account("4", "Adams County Office", "Indiana"), model.ConfidenceLow, true},
		{"low sheriff wrong state", account("5", "Adams County Sheriff", "Indiana"), model.ConfidenceLow, true},
		{"very low", account("6", "Brown County Sheriff", "ohio"), model.ConfidenceVeryLow, true},
		{"not a candidate", account("7", "Brown County Sheriff", "Indiana"), model.ConfidenceNoMatch, false},
		{"state match without sheriff", account("8", "Brown County Office", "Ohio"), model.ConfidenceNoMatch, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Score(f, tt.account)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScore_UnanchoredContainment(t *testing.T) {
	// "Lake" sits inside "Lakewood"; substring semantics accept it.
	conf, ok := Score(facility("X", "Lake", "Colorado"), account("1", "Lakewood Police Sheriff Unit", "Colorado"))
	require.True(t, ok)
	assert.Equal(t, model.ConfidenceHigh, conf)
}

func TestScore_MissingLocation(t *testing.T) {
	a := account("1", "Travis County Sheriff", "Texas")

	_, ok := Score(facility("X", "", "Texas"), a)
	assert.False(t, ok)
	_, ok = Score(facility("X", "Travis", ""), a)
	assert.False(t, ok)
	_, ok = Score(facility("X", "   ", "Texas"), a)
	assert.False(t, ok)
}

func TestRank_MissingCountyIsNoMatch(t *testing.T) {
	facilities := []model.FacilityRecord{facility("Unknown", "", "Texas")}
	accounts := []model.AccountRecord{account("1", "Harris County Sheriff", "Texas")}

	rows := Rank(facilities, accounts, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, model.ConfidenceNoMatch, rows[0].Confidence)
}

func TestRank_DuplicateFacilityNamesCollapse(t *testing.T) {
	facilities := []model.FacilityRecord{
		facility("County Jail", "Bexar", "Texas"),
		facility("County Jail", "Harris", "Texas"),
	}
	accounts := []model.AccountRecord{
		account("1", "Harris County Sheriff", "Texas"),
		account("2", "Bexar Deputies", "Texas"),
	}

	rows := Rank(facilities, accounts, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "Harris", rows[0].CountyName)
	assert.Equal(t, "1", rows[0].AccountID())
}

func TestRank_Cardinality(t *testing.T) {
	var facilities []model.FacilityRecord
	for i := range 50 {
		facilities = append(facilities, facility(fmt.Sprintf("Facility %02d", i), fmt.Sprintf("County%d", i%7), "Texas"))
	}
	accounts := []model.AccountRecord{
		account("1", "County1 Sheriff", "Texas"),
		account("2", "County3 Texas Office", "Kansas"),
		account("3", "Statewide Sheriff", "Texas"),
	}

	rows := Rank(facilities, accounts, Options{})
	assert.Len(t, rows, len(facilities))

	valid := map[int]model.Confidence{1: model.ConfidenceHigh, 2: model.ConfidenceMedium, 3: model.ConfidenceLow, 4: model.ConfidenceVeryLow, 999: model.ConfidenceNoMatch}
	for _, r := range rows {
		want, ok := valid[r.Score]
		require.True(t, ok, "unexpected score %d", r.Score)
		assert.Equal(t, want, r.Confidence)
	}
}

func TestRank_IdempotentAndParallelAgree(t *testing.T) {
	var facilities []model.FacilityRecord
	for i := range 40 {
		facilities = append(facilities, facility(fmt.Sprintf("F%02d", i), fmt.Sprintf("C%d", i%5), []string{"Texas", "Ohio"}[i%2]))
	}
	accounts := []model.AccountRecord{
		account("1", "C1 County Sheriff", "Texas"),
		account("2", "C2 Ohio Group", "Ohio"),
		account("3", "Ohio Sheriff Association", "Ohio"),
		account("4", "C4 Office", "Ohio"),
	}

	first := Rank(facilities, accounts, Options{Ordering: OrderScore})
	second := Rank(facilities, accounts, Options{Ordering: OrderScore})
	parallel := Rank(facilities, accounts, Options{Ordering: OrderScore, Workers: 4})

	assert.Equal(t, first, second)
	assert.Equal(t, first, parallel)
}

func TestRank_LexicalOrdering(t *testing.T) {
	facilities := []model.FacilityRecord{
		facility("A", "Alpha", "Texas"),   // high
		facility("B", "Beta", "Texas"),    // medium
		facility("C", "Gamma", "Texas"),   // low
		facility("D", "Delta", "Texas"),   // very low via state sheriff
		facility("E", "Epsilon", "Maine"), // no match
	}
	accounts := []model.AccountRecord{
		account("1", "Alpha Sheriff", "Texas"),
		account("2", "Beta Texas Board", "Kansas"),
		account("3", "Gamma Board", "Kansas"),
		account("4", "Zeta Sheriff", "Texas"),
	}

	labels := func(rows []model.MatchedRow) []string {
		var out []string
		for _, r := range rows {
			out = append(out, r.Confidence.String())
		}
		return out
	}

	lexical := Rank(facilities, accounts, Options{})
	assert.Equal(t, []string{"High Confidence", "Low Confidence", "Medium Confidence", "No Match Found", "Very Low"}, labels(lexical))

	byScore := Rank(facilities, accounts, Options{Ordering: OrderScore})
	assert.Equal(t, []string{"High Confidence", "Medium Confidence", "Low Confidence", "Very Low", "No Match Found"}, labels(byScore))
}

func TestRank_OrdersByStateThenCounty(t *testing.T) {
	facilities := []model.FacilityRecord{
		facility("Z", "Travis", "Texas"),
		facility("Y", "Bexar", "Texas"),
		facility("X", "Adams", "Ohio"),
	}

	rows := Rank(facilities, nil, Options{})
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"X", "Y", "Z"}, []string{rows[0].FacilityName, rows[1].FacilityName, rows[2].FacilityName})
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil, nil, Options{}))
}

func TestEligibleAccounts(t *testing.T) {
	accounts := []model.AccountRecord{
		{ID: "1", Name: "Travis County Sheriff"},
		{ID: "2", Name: "travis county SHERIFF's office"},
		{ID: "3", Name: "Travis County Sheriff", IsDeleted: true},
		{ID: "4", Name: "Travis Water District"},
	}

	got := EligibleAccounts(accounts, "Sheriff")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestOrdering_Valid(t *testing.T) {
	assert.True(t, OrderLexical.Valid())
	assert.True(t, OrderScore.Valid())
	assert.False(t, Ordering("numeric").Valid())
}
