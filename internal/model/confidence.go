package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Confidence grades how well a CRM account matches a facility.
type Confidence int

const (
	ConfidenceNoMatch Confidence = iota
	ConfidenceHigh
	ConfidenceMedium
	ConfidenceLow
	ConfidenceVeryLow
)

// Match scores. Lower is better; NoMatchScore marks a facility without candidates.
const (
	HighScore    = 1
	MediumScore  = 2
	LowScore     = 3
	VeryLowScore = 4
	NoMatchScore = 999
)

var confidenceLabels = map[Confidence]string{
	ConfidenceHigh:    "High Confidence",
	ConfidenceMedium:  "Medium Confidence",
	ConfidenceLow:     "Low Confidence",
	ConfidenceVeryLow: "Very Low",
	ConfidenceNoMatch: "No Match Found",
}

var confidenceScores = map[Confidence]int{
	ConfidenceHigh:    HighScore,
	ConfidenceMedium:  MediumScore,
	ConfidenceLow:     LowScore,
	ConfidenceVeryLow: VeryLowScore,
	ConfidenceNoMatch: NoMatchScore,
}

// Confidences lists every confidence level in score order.
var Confidences = []Confidence{
	ConfidenceHigh,
	ConfidenceMedium,
	ConfidenceLow,
	ConfidenceVeryLow,
	ConfidenceNoMatch,
}

// String returns the human-readable label shown in the dashboard.
func (c Confidence) String() string {
	if l, ok := confidenceLabels[c]; ok {
		return l
	}
	return fmt.Sprintf("Confidence(%d)", int(c))
}

// Score returns the match score for the confidence level.
func (c Confidence) Score() int {
	if s, ok := confidenceScores[c]; ok {
		return s
	}
	return NoMatchScore
}

// Matched reports whether the level carries an account.
func (c Confidence) Matched() bool {
	return c != ConfidenceNoMatch
}

// ConfidenceFromScore maps a match score back to its confidence level.
func ConfidenceFromScore(score int) (Confidence, error) {
	for c, s := range confidenceScores {
		if s == score {
			return c, nil
		}
	}
	return ConfidenceNoMatch, eris.Errorf("model: unknown match score %d", score)
}

// ParseConfidence parses a dashboard label such as "High Confidence".
func ParseConfidence(label string) (Confidence, error) {
	for c, l := range confidenceLabels {
		if l == label {
			return c, nil
		}
	}
	return ConfidenceNoMatch, eris.Errorf("model: unknown confidence label %q", label)
}

// MarshalText encodes the confidence as its label.
func (c Confidence) MarshalText() ([]byte, error) {
	if _, ok := confidenceLabels[c]; !ok {
		return nil, eris.Errorf("model: invalid confidence %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a confidence label.
func (c *Confidence) UnmarshalText(b []byte) error {
	parsed, err := ParseConfidence(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
