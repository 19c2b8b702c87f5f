// Package stats turns a poll's raw response values into a Stats summary.
//
// Compute is a pure function: the same poll and values always produce the same
// Stats, and it is safe to call concurrently. Malformed values never fail an
// aggregation; they are dropped and reported in Stats.Excluded.
//
// Distribution layout per poll type:
//
//	boolean         labels ["Yes","No"]
//	choice          one label per distinct answer, first-occurrence order
//	numeric/slider  clamp(ceil(sqrt(n)),5,10) half-open ranges "start-end"
//
// The tie-break and rounding rules (MedianLowerMiddle, ModeFirstMax,
// BucketIndex, Percent) are exported so surfaces that re-derive numbers from a
// distribution use exactly the same policy.
package stats

import (
	"fmt"
	"sort"

	"github.com/rewired-gh/pollsight/internal/models"
)

// Labels used for boolean distributions, in this order.
const (
	LabelYes = "Yes"
	LabelNo  = "No"
)

// Compute aggregates values according to the poll's type and configuration.
func Compute(poll *models.Poll, values []models.Value) models.Stats {
	if len(values) == 0 {
		return empty(0)
	}

	switch poll.Type {
	case models.PollTypeBoolean:
		return computeBoolean(values)
	case models.PollTypeNumeric, models.PollTypeSlider:
		return computeNumeric(poll, values)
	case models.PollTypeChoice:
		return computeChoice(poll, values)
	default:
		return empty(len(values))
	}
}

func empty(count int) models.Stats {
	return models.Stats{
		Count:        count,
		Distribution: models.Distribution{Labels: []string{}, Values: []int{}},
	}
}

func computeBoolean(values []models.Value) models.Stats {
	var yes, no, excluded int
	for _, v := range values {
		b, ok := CoerceBool(v)
		switch {
		case !ok:
			excluded++
		case b:
			yes++
		default:
			no++
		}
	}

	if yes+no == 0 {
		s := empty(0)
		s.Excluded = excluded
		return s
	}

	return models.Stats{
		Count: yes + no,
		Distribution: models.Distribution{
			Labels: []string{LabelYes, LabelNo},
			Values: []int{yes, no},
		},
		Excluded: excluded,
	}
}

func computeNumeric(poll *models.Poll, values []models.Value) models.Stats {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if n, ok := CoerceNumber(v); ok {
			nums = append(nums, n)
		}
	}
	excluded := len(values) - len(nums)
	if len(nums) == 0 {
		s := empty(0)
		s.Excluded = excluded
		return s
	}

	sorted := make([]float64, len(nums))
	copy(sorted, nums)
	sort.Float64s(sorted)

	var sum float64
	for _, n := range nums {
		sum += n
	}
	mean := sum / float64(len(nums))
	median := MedianLowerMiddle(sorted)

	// Configured bounds win over observed ones, independently.
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if poll.MinValue != nil {
		lo = *poll.MinValue
	}
	if poll.MaxValue != nil {
		hi = *poll.MaxValue
	}

	count := BucketCount(len(nums))
	width := BucketWidth(lo, hi, count)

	buckets := make([]int, count)
	for _, n := range nums {
		buckets[BucketIndex(n, lo, width, count)]++
	}

	labels := make([]string, count)
	ranges := make([]models.Range, count)
	for i := range labels {
		start := lo + float64(i)*width
		end := lo + float64(i+1)*width
		labels[i] = fmt.Sprintf("%.1f-%.1f", start, end)
		ranges[i] = models.Range{Start: start, End: end}
	}

	return models.Stats{
		Count:        len(nums),
		Distribution: models.Distribution{Labels: labels, Values: buckets},
		Mean:         &mean,
		Median:       &median,
		Ranges:       ranges,
		Excluded:     excluded,
		BucketStart:  lo,
		BucketWidth:  width,
	}
}

func computeChoice(poll *models.Poll, values []models.Value) models.Stats {
	index := make(map[string]int)
	var keys []string
	dist := models.Distribution{Labels: []string{}, Values: []int{}}
	excluded := 0

	for _, v := range values {
		key, ok := NormalizeChoice(v)
		if !ok {
			excluded++
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(keys)
			index[key] = i
			keys = append(keys, key)
			dist.Labels = append(dist.Labels, ChoiceLabel(poll, key))
			dist.Values = append(dist.Values, 0)
		}
		dist.Values[i]++
	}

	if len(keys) == 0 {
		s := empty(0)
		s.Excluded = excluded
		return s
	}

	s := models.Stats{
		Count:        len(values) - excluded,
		Distribution: dist,
		Excluded:     excluded,
		ChoiceKeys:   keys,
	}
	if mode, ok := ModeFirstMax(dist); ok {
		s.Mode = &mode
	}
	return s
}

// ChoiceLabel maps a normalized choice key to its display label: the option
// text when the key is a known option id, otherwise the key itself.
func ChoiceLabel(poll *models.Poll, key string) string {
	if text, ok := poll.OptionText(key); ok {
		return text
	}
	return key
}
