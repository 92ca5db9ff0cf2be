// Package risk holds the single score-to-band mapping every consumer uses.
package risk

import (
	"strings"

	"github.com/Amritha902/infocruxapp/internal/types"
)

const (
	// NormalCeiling is the highest score still considered Normal.
	NormalCeiling = 30.0
	// ModerateCeiling is the highest score still considered Moderate.
	ModerateCeiling = 60.0

	MinScore = 0.0
	MaxScore = 100.0
)

// Categorize maps a 0-100 score onto its band: <=30 Normal, <=60 Moderate,
// above that Statistically Abnormal.
func Categorize(score float64) types.RiskCategory {
	switch {
	case score <= NormalCeiling:
		return types.RiskNormal
	case score <= ModerateCeiling:
		return types.RiskModerate
	default:
		return types.RiskAbnormal
	}
}

func ValidScore(score float64) bool {
	return score >= MinScore && score <= MaxScore
}

// ParseCategory accepts the band names case-insensitively, plus "Abnormal"
// as shorthand for Statistically Abnormal.
func ParseCategory(s string) (types.RiskCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return types.RiskNormal, true
	case "moderate":
		return types.RiskModerate, true
	case "statistically abnormal", "abnormal":
		return types.RiskAbnormal, true
	}
	return "", false
}

// Level is the short badge label shown next to a score.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

func LevelOf(score float64) Level {
	switch Categorize(score) {
	case types.RiskAbnormal:
		return LevelHigh
	case types.RiskModerate:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Badge returns the badge variant for a score: default, secondary or destructive.
func Badge(score float64) string {
	switch Categorize(score) {
	case types.RiskAbnormal:
		return "destructive"
	case types.RiskModerate:
		return "secondary"
	default:
		return "default"
	}
}

const (
	ImpactNone     = "No abnormal reaction"
	ImpactElevated = "Elevated movement"
	ImpactHigh     = "High abnormal reaction"
)

// ImpactStatus is the news-card wording for a score.
func ImpactStatus(score float64) string {
	switch Categorize(score) {
	case types.RiskAbnormal:
		return ImpactHigh
	case types.RiskModerate:
		return ImpactElevated
	default:
		return ImpactNone
	}
}

// IsAlert reports whether a score lands in the Statistically Abnormal band.
func IsAlert(score float64) bool {
	return Categorize(score) == types.RiskAbnormal
}

type Distribution struct {
	Normal   int `json:"normal"`
	Moderate int `json:"moderate"`
	Abnormal int `json:"abnormal"`
}

func (d Distribution) Total() int {
	return d.Normal + d.Moderate + d.Abnormal
}

func Distribute(scores ...float64) Distribution {
	var d Distribution
	for _, s := range scores {
		switch Categorize(s) {
		case types.RiskNormal:
			d.Normal++
		case types.RiskModerate:
			d.Moderate++
		default:
			d.Abnormal++
		}
	}
	return d
}
