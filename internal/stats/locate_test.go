package stats

import (
	"testing"

	"github.com/rewired-gh/pollsight/internal/models"
)

func TestLocate(t *testing.T) {
	boolStats := Compute(booleanPoll, bools(true, true, true, false))
	petStats := Compute(petsPoll, strs("o1", "o1", "o2", "o1"))
	tvStats := Compute(tvPoll, nums(10, 20, 30, 40, 50, 60, 70, 80, 90, 100))

	tests := []struct {
		name      string
		poll      *models.Poll
		stats     models.Stats
		value     models.Value
		wantLabel string
		wantIndex int
		wantPct   int
	}{
		{"boolean yes", booleanPoll, boolStats, models.BoolValue(true), "Yes", 0, 75},
		{"boolean string no", booleanPoll, boolStats, models.StringValue("FALSE"), "No", 1, 25},
		{"choice by option id", petsPoll, petStats, models.StringValue("o2"), "Dogs", 1, 25},
		{"choice quoted id", petsPoll, petStats, models.StringValue(`"o1"`), "Cats", 0, 75},
		{"choice missing", petsPoll, petStats, models.StringValue("o9"), "o9", -1, 0},
		{"numeric inside bucket", tvPoll, tvStats, models.NumberValue(45), "45", 2, 20},
		{"numeric maximum", tvPoll, tvStats, models.NumberValue(100), "100", 4, 30},
		{"numeric bucket boundary", tvPoll, tvStats, models.NumberValue(20), "20", 1, 20},
		{"numeric string", tvPoll, tvStats, models.StringValue("5"), "5", 0, 10},
		{"numeric garbage", tvPoll, tvStats, models.StringValue("lots"), "lots", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Locate(tt.poll, tt.stats, tt.value)
			if got.Label != tt.wantLabel || got.Index != tt.wantIndex || got.Percent != tt.wantPct {
				t.Errorf("Locate() = %+v, want label=%q index=%d pct=%d",
					got, tt.wantLabel, tt.wantIndex, tt.wantPct)
			}
		})
	}
}

func TestLocate_ChoiceWithSharedText(t *testing.T) {
	poll := &models.Poll{
		Type:    models.PollTypeChoice,
		Options: []models.Option{{ID: "a", Text: "Other"}, {ID: "b", Text: "Other"}},
	}
	s := Compute(poll, strs("a", "b", "b", "b"))

	got := Locate(poll, s, models.StringValue("b"))
	if got.Label != "Other" || got.Index != 1 || got.Percent != 75 {
		t.Errorf("Locate(b) = %+v, want Other at index 1 with 75%%", got)
	}
}

func TestLocate_FallsBackToLabels(t *testing.T) {
	s := Compute(tvPoll, nums(10, 20, 30, 40, 50, 60, 70, 80, 90, 100))
	s.Ranges = nil
	s.BucketWidth = 0

	got := Locate(tvPoll, s, models.NumberValue(65))
	if got.Index != 3 {
		t.Errorf("expected bucket 3 from parsed labels, got %d", got.Index)
	}
}

func TestLocate_AgreesWithCompute(t *testing.T) {
	poll := &models.Poll{Type: models.PollTypeSlider, MinValue: ptr(1.0), MaxValue: ptr(100.0)}
	var values []models.Value
	for v := 1.0; v <= 100; v += 3 {
		values = append(values, models.NumberValue(v))
	}
	s := Compute(poll, values)

	counts := make([]int, len(s.Distribution.Values))
	for _, v := range values {
		a := Locate(poll, s, v)
		if !a.Found() {
			t.Fatalf("value %v not located", v)
		}
		counts[a.Index]++
	}
	for i := range counts {
		if counts[i] != s.Distribution.Values[i] {
			t.Errorf("bucket %d: located %d values, computed %d", i, counts[i], s.Distribution.Values[i])
		}
	}
}

func TestLocate_DecimalBounds(t *testing.T) {
	poll := &models.Poll{Type: models.PollTypeNumeric, MinValue: ptr(1.7), MaxValue: ptr(2.7)}
	values := append(repeatNum(2.3, 9), models.NumberValue(2.6))
	s := Compute(poll, values)

	want := []int{0, 0, 9, 0, 1}
	if !equalInts(s.Distribution.Values, want) {
		t.Fatalf("distribution = %v, want %v", s.Distribution.Values, want)
	}

	got := Locate(poll, s, models.NumberValue(2.3))
	if got.Index != 2 || got.Percent != 90 {
		t.Errorf("Locate(2.3) = %+v, want index 2 at 90%%", got)
	}
}

func TestLocate_AgreesWithComputeOnDecimalBounds(t *testing.T) {
	bounds := [][2]float64{{1.7, 2.7}, {0.1, 0.7}, {-3.3, 9.9}, {12.25, 12.95}, {0.3, 100.7}}
	for _, b := range bounds {
		poll := &models.Poll{Type: models.PollTypeNumeric, MinValue: ptr(b[0]), MaxValue: ptr(b[1])}
		var values []models.Value
		for i := 0; i <= 60; i++ {
			values = append(values, models.NumberValue(b[0]+(b[1]-b[0])*float64(i)/60))
		}
		s := Compute(poll, values)

		counts := make([]int, len(s.Distribution.Values))
		for _, v := range values {
			a := Locate(poll, s, v)
			if !a.Found() {
				t.Fatalf("bounds %v: value %v not located", b, v)
			}
			counts[a.Index]++
		}
		if !equalInts(counts, s.Distribution.Values) {
			t.Errorf("bounds %v: located %v, computed %v", b, counts, s.Distribution.Values)
		}
	}
}

func repeatNum(n float64, times int) []models.Value {
	out := make([]models.Value, times)
	for i := range out {
		out[i] = models.NumberValue(n)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseRangeLabel(t *testing.T) {
	tests := []struct {
		label  string
		want   models.Range
		wantOK bool
	}{
		{"0.0-20.0", models.Range{Start: 0, End: 20}, true},
		{"-10.0--5.0", models.Range{Start: -10, End: -5}, true},
		{"-2.5-2.5", models.Range{Start: -2.5, End: 2.5}, true},
		{"Cats", models.Range{}, false},
		{"10.0-", models.Range{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseRangeLabel(tt.label)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseRangeLabel(%q) = %+v, %v; want %+v, %v", tt.label, got, ok, tt.want, tt.wantOK)
		}
	}
}
