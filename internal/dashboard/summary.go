package dashboard

import "github.com/sells-group/facility-match/internal/model"

// Summary is the headline metrics row.
type Summary struct {
	Total   int `json:"total_facilities"`
	Matched int `json:"matched"`
	High    int `json:"high_confidence"`
	NoMatch int `json:"no_match"`
}

// Summarize counts rows by match outcome.
func Summarize(rows []model.MatchedRow) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		switch {
		case r.Confidence == model.ConfidenceHigh:
			s.High++
			s.Matched++
		case r.Confidence.Matched():
			s.Matched++
		default:
			s.NoMatch++
		}
	}
	return s
}
