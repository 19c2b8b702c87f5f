package stats

import (
	"math"

	"github.com/rewired-gh/pollsight/internal/models"
)

// Bucketing limits for numeric distributions.
const (
	MinBuckets = 5
	MaxBuckets = 10
)

// MedianLowerMiddle returns the middle element of an ascending slice, taking
// the lower of the two middle elements when the length is even. There is no
// interpolation: [1 2 3 4] has median 2.
func MedianLowerMiddle(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[(len(sorted)-1)/2]
}

// ModeFirstMax returns the label with the highest count. A left-to-right scan
// keeps the first label that reaches the maximum, so ties go to the bucket that
// appeared first.
func ModeFirstMax(d models.Distribution) (string, bool) {
	i := ModeIndex(d)
	if i < 0 {
		return "", false
	}
	return d.Labels[i], true
}

// ModeIndex is the bucket ModeFirstMax picks, or -1 for an empty
// distribution. Labels are not unique, so callers that need the count use the
// index.
func ModeIndex(d models.Distribution) int {
	best := -1
	for i, v := range d.Values {
		if best < 0 || v > d.Values[best] {
			best = i
		}
	}
	if best >= len(d.Labels) {
		return -1
	}
	return best
}

// LeastFirstMin mirrors ModeFirstMax for the smallest count.
func LeastFirstMin(d models.Distribution) (string, int, bool) {
	best := -1
	for i, v := range d.Values {
		if best < 0 || v < d.Values[best] {
			best = i
		}
	}
	if best < 0 || best >= len(d.Labels) {
		return "", 0, false
	}
	return d.Labels[best], d.Values[best], true
}

// BucketCount picks clamp(ceil(sqrt(n)), MinBuckets, MaxBuckets).
func BucketCount(n int) int {
	c := int(math.Ceil(math.Sqrt(float64(n))))
	if c < MinBuckets {
		return MinBuckets
	}
	if c > MaxBuckets {
		return MaxBuckets
	}
	return c
}

// BucketWidth splits [lo, hi] into count equal buckets. A degenerate range
// gets width 1.
func BucketWidth(lo, hi float64, count int) float64 {
	if hi <= lo || count <= 0 {
		return 1
	}
	return (hi - lo) / float64(count)
}

// BucketIndex places v into [0, count-1]. The maximum of the range lands in
// the last bucket; values outside the range are clamped to the nearest end.
func BucketIndex(v, lo, width float64, count int) int {
	f := math.Floor((v - lo) / width)
	if f <= 0 {
		return 0
	}
	if f >= float64(count-1) {
		return count - 1
	}
	return int(f)
}

// Percent is part/total as an integer percentage, rounded half up.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(RoundHalfUp(float64(part) / float64(total) * 100))
}

// RoundHalfUp rounds to the nearest integer with .5 going toward +Inf, so
// -2.5 rounds to -2.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// RoundOneDecimal rounds half up to one decimal place.
func RoundOneDecimal(x float64) float64 {
	return RoundHalfUp(x*10) / 10
}
