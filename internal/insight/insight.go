// Package insight turns poll statistics into short human-readable statements.
//
// Global insights describe the whole poll; personalized insights compare one
// user's answer with everyone else's. Both are regenerated on every call from a
// models.Stats value and are never stored.
package insight

import (
	"strconv"

	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/stats"
)

// Defaults for Generator thresholds.
const (
	DefaultGlobalMinResponses   = 10
	DefaultPersonalMinResponses = 5
	DefaultMaxInsights          = 3
)

// Generator builds insights. The zero value uses the default thresholds and a
// time-seeded JitterEstimator.
type Generator struct {
	// Estimator supplies demographic subgroup shares for personalized
	// comparisons.
	Estimator SubgroupEstimator

	// Below these counts a single participation statement is returned.
	GlobalMinResponses   int
	PersonalMinResponses int

	// MaxInsights caps every result.
	MaxInsights int
}

// NewGenerator returns a Generator with default thresholds and the given
// estimator.
func NewGenerator(est SubgroupEstimator) *Generator {
	return &Generator{
		Estimator:            est,
		GlobalMinResponses:   DefaultGlobalMinResponses,
		PersonalMinResponses: DefaultPersonalMinResponses,
		MaxInsights:          DefaultMaxInsights,
	}
}

func (g *Generator) globalMin() int {
	if g.GlobalMinResponses <= 0 {
		return DefaultGlobalMinResponses
	}
	return g.GlobalMinResponses
}

func (g *Generator) personalMin() int {
	if g.PersonalMinResponses <= 0 {
		return DefaultPersonalMinResponses
	}
	return g.PersonalMinResponses
}

func (g *Generator) limit(out []models.Insight) []models.Insight {
	n := g.MaxInsights
	if n <= 0 {
		n = DefaultMaxInsights
	}
	if len(out) > n {
		return out[:n]
	}
	return out
}

var sharedJitter = NewJitterEstimator(0)

func (g *Generator) estimator() SubgroupEstimator {
	if g.Estimator == nil {
		return sharedJitter
	}
	return g.Estimator
}

// formatNumber prints a rounded value in its shortest form: 42.3, 7, -1.5.
func formatNumber(x float64) string {
	return strconv.FormatFloat(stats.RoundOneDecimal(x), 'f', -1, 64)
}

func global(text, icon, color string) models.Insight {
	return models.Insight{Kind: models.InsightGlobal, Text: text, Icon: icon, Color: color}
}

func personal(text, icon, color string, comparison bool) models.Insight {
	return models.Insight{
		Kind:         models.InsightPersonalized,
		Text:         text,
		Icon:         icon,
		Color:        color,
		IsComparison: comparison,
	}
}
