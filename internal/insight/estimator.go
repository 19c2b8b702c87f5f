package insight

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/stats"
)

// SubgroupEstimator reports what share of a demographic group gave the same
// answer as the user, given the user's share of the whole population.
type SubgroupEstimator interface {
	EstimateSubgroupShare(axis models.DemographicAxis, group string, userPct int) int
}

// EstimatorFunc adapts a function to SubgroupEstimator.
type EstimatorFunc func(axis models.DemographicAxis, group string, userPct int) int

func (f EstimatorFunc) EstimateSubgroupShare(axis models.DemographicAxis, group string, userPct int) int {
	return f(axis, group, userPct)
}

// JitterEstimator approximates subgroup shares by perturbing the population
// share with uniform noise. The figures are illustrative, not measured:
//
//	age     clamp(userPct + (r-0.5)*30, 10, 90)
//	gender  clamp(userPct + (r-0.5)*25, 15, 85)
//	region  r*40 + 30
//
// Other axes return userPct unchanged.
type JitterEstimator struct {
	mu  sync.Mutex
	src func() float64
}

// NewJitterEstimator seeds a private source. A zero seed uses the clock.
func NewJitterEstimator(seed int64) *JitterEstimator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))
	return &JitterEstimator{src: rnd.Float64}
}

// NewJitterEstimatorWithSource uses src for every draw; src must return values
// in [0, 1).
func NewJitterEstimatorWithSource(src func() float64) *JitterEstimator {
	return &JitterEstimator{src: src}
}

func (e *JitterEstimator) draw() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src()
}

func (e *JitterEstimator) EstimateSubgroupShare(axis models.DemographicAxis, _ string, userPct int) int {
	pct := float64(userPct)
	switch axis {
	case models.AxisAgeRange:
		return int(stats.RoundHalfUp(clamp(pct+(e.draw()-0.5)*30, 10, 90)))
	case models.AxisGender:
		return int(stats.RoundHalfUp(clamp(pct+(e.draw()-0.5)*25, 15, 85)))
	case models.AxisRegion:
		return int(stats.RoundHalfUp(e.draw()*40 + 30))
	}
	return userPct
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
