package stats

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rewired-gh/pollsight/internal/models"
)

// Answer is where one response falls inside a Stats distribution.
type Answer struct {
	Label   string // how the answer is shown to the user
	Index   int    // bucket index, -1 when not found
	Percent int    // share of Stats.Count in that bucket
}

// Found reports whether the answer matched a bucket.
func (a Answer) Found() bool { return a.Index >= 0 }

// Locate finds v inside s using the same matching rules Compute used to build
// the distribution.
func Locate(poll *models.Poll, s models.Stats, v models.Value) Answer {
	a := Answer{Index: -1}

	switch poll.Type {
	case models.PollTypeBoolean:
		a.Label = LabelNo
		if b, ok := CoerceBool(v); ok && b {
			a.Label = LabelYes
		}
		for i, label := range s.Distribution.Labels {
			if strings.EqualFold(label, a.Label) {
				a.Index = i
				break
			}
		}

	case models.PollTypeChoice:
		key, _ := NormalizeChoice(v)
		a.Label = ChoiceLabel(poll, key)
		candidates := s.Distribution.Labels
		want := a.Label
		if len(s.ChoiceKeys) == len(candidates) {
			candidates, want = s.ChoiceKeys, key
		}
		for i, c := range candidates {
			if c == want {
				a.Index = i
				break
			}
		}

	case models.PollTypeNumeric, models.PollTypeSlider:
		a.Label = v.String()
		if n, ok := CoerceNumber(v); ok {
			a.Index = locateBucket(s, n)
		}

	default:
		a.Label = v.String()
	}

	if a.Index >= 0 && a.Index < len(s.Distribution.Values) {
		a.Percent = Percent(s.Distribution.Values[a.Index], s.Count)
	} else {
		a.Index = -1
	}
	return a
}

// locateBucket returns the bucket Compute counted n into. Stats that lost
// their layout fall back to the ranges, or to the parsed labels.
func locateBucket(s models.Stats, n float64) int {
	count := len(s.Distribution.Labels)
	if count == 0 {
		return -1
	}
	if s.BucketWidth > 0 {
		return BucketIndex(n, s.BucketStart, s.BucketWidth, count)
	}

	ranges := s.Ranges
	if len(ranges) != count {
		ranges = make([]models.Range, 0, count)
		for _, label := range s.Distribution.Labels {
			r, ok := ParseRangeLabel(label)
			if !ok {
				return -1
			}
			ranges = append(ranges, r)
		}
	}
	lo := ranges[0].Start
	return BucketIndex(n, lo, BucketWidth(lo, ranges[count-1].End, count), count)
}

// ParseRangeLabel reads a "start-end" bucket label back into a Range. Negative
// bounds are supported ("-10.0--5.0").
func ParseRangeLabel(label string) (models.Range, bool) {
	for i := 1; i < len(label); i++ {
		if label[i] != '-' || !unicode.IsDigit(rune(label[i-1])) {
			continue
		}
		start, err := strconv.ParseFloat(label[:i], 64)
		if err != nil {
			return models.Range{}, false
		}
		end, err := strconv.ParseFloat(label[i+1:], 64)
		if err != nil {
			return models.Range{}, false
		}
		return models.Range{Start: start, End: end}, true
	}
	return models.Range{}, false
}
