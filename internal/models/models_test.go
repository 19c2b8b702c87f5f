package models

import (
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func floatPtr(f float64) *float64 { return &f }

func TestPollValidate(t *testing.T) {
	tests := []struct {
		name    string
		poll    Poll
		wantErr bool
	}{
		{
			name:    "valid boolean poll",
			poll:    Poll{ID: "p1", Question: "Coffee?", Type: PollTypeBoolean},
			wantErr: false,
		},
		{
			name: "valid choice poll",
			poll: Poll{
				ID: "p2", Question: "Cats or dogs?", Type: PollTypeChoice,
				Options:            []Option{{ID: "o1", Text: "Cats"}, {ID: "o2", Text: "Dogs"}},
				DemographicFilters: []DemographicAxis{AxisGender},
			},
			wantErr: false,
		},
		{
			name:    "valid slider with bounds",
			poll:    Poll{ID: "p3", Question: "Rate", Type: PollTypeSlider, MinValue: floatPtr(1), MaxValue: floatPtr(100)},
			wantErr: false,
		},
		{
			name:    "empty ID",
			poll:    Poll{Question: "Coffee?", Type: PollTypeBoolean},
			wantErr: true,
		},
		{
			name:    "empty question",
			poll:    Poll{ID: "p1", Type: PollTypeBoolean},
			wantErr: true,
		},
		{
			name:    "unknown type",
			poll:    Poll{ID: "p1", Question: "?", Type: "ranking"},
			wantErr: true,
		},
		{
			name:    "inverted bounds",
			poll:    Poll{ID: "p1", Question: "?", Type: PollTypeNumeric, MinValue: floatPtr(10), MaxValue: floatPtr(1)},
			wantErr: true,
		},
		{
			name:    "choice with one option",
			poll:    Poll{ID: "p1", Question: "?", Type: PollTypeChoice, Options: []Option{{ID: "o1", Text: "A"}}},
			wantErr: true,
		},
		{
			name: "duplicate option IDs",
			poll: Poll{ID: "p1", Question: "?", Type: PollTypeChoice,
				Options: []Option{{ID: "o1", Text: "A"}, {ID: "o1", Text: "B"}}},
			wantErr: true,
		},
		{
			name:    "unknown demographic filter",
			poll:    Poll{ID: "p1", Question: "?", Type: PollTypeBoolean, DemographicFilters: []DemographicAxis{"height"}},
			wantErr: true,
		},
		{
			name:    "negative upvotes",
			poll:    Poll{ID: "p1", Question: "?", Type: PollTypeBoolean, Upvotes: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.poll.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPollOptions(t *testing.T) {
	p := Poll{Options: []Option{{ID: "o1", Text: "Cats"}, {ID: "o2"}}}

	if text, ok := p.OptionText("o1"); !ok || text != "Cats" {
		t.Errorf("OptionText(o1) = %q, %v", text, ok)
	}
	if _, ok := p.OptionText("o2"); ok {
		t.Error("an option without text should not resolve")
	}
	if !p.HasOption("o2") || p.HasOption("o3") {
		t.Error("HasOption mismatch")
	}
}

func TestPollTypeIsNumeric(t *testing.T) {
	for typ, want := range map[PollType]bool{
		PollTypeBoolean: false,
		PollTypeChoice:  false,
		PollTypeNumeric: true,
		PollTypeSlider:  true,
	} {
		if got := typ.IsNumeric(); got != want {
			t.Errorf("%s.IsNumeric() = %v, want %v", typ, got, want)
		}
	}
}

func TestDemographics(t *testing.T) {
	complete := &Demographics{AgeRange: "25-34", Gender: "female", Region: "Europe"}
	if err := complete.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if !complete.IsComplete() {
		t.Error("profile without occupation should still be complete")
	}
	if complete.Get(AxisRegion) != "Europe" || complete.Get(AxisOccupation) != "" {
		t.Error("Get returned the wrong field")
	}

	var missing *Demographics
	if missing.IsComplete() {
		t.Error("nil profile cannot be complete")
	}
	if (&Demographics{AgeRange: "25-34"}).IsComplete() {
		t.Error("partial profile cannot be complete")
	}

	for _, bad := range []Demographics{
		{AgeRange: "12-17"},
		{Gender: "robot"},
		{Region: "Atlantis"},
		{Occupation: "Pirate"},
	} {
		if err := bad.Validate(); err == nil {
			t.Errorf("expected error for %+v", bad)
		}
	}
}

func TestFiltersMatches(t *testing.T) {
	d := Demographics{AgeRange: "25-34", Gender: "female", Region: "Europe", Occupation: "Technology"}

	tests := []struct {
		name    string
		filters Filters
		want    bool
	}{
		{"empty", Filters{}, true},
		{"one axis", Filters{Gender: "female"}, true},
		{"all axes", Filters{AgeRange: "25-34", Gender: "female", Region: "Europe", Occupation: "Technology"}, true},
		{"mismatch", Filters{Region: "Asia"}, false},
		{"partial mismatch", Filters{Gender: "female", AgeRange: "65+"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filters.Matches(d); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
	if !(Filters{}).IsEmpty() || (Filters{Gender: "male"}).IsEmpty() {
		t.Error("IsEmpty mismatch")
	}
}

func TestResponseValidate(t *testing.T) {
	valid := Response{ID: "r1", PollID: "p1", UserID: "u1", Value: BoolValue(true), CreatedAt: time.Now().Add(-time.Minute)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	tests := map[string]func(r *Response){
		"empty ID":          func(r *Response) { r.ID = "" },
		"empty poll":        func(r *Response) { r.PollID = "" },
		"empty user":        func(r *Response) { r.UserID = "" },
		"missing value":     func(r *Response) { r.Value = Value{} },
		"invalid profile":   func(r *Response) { r.Demographics.Gender = "robot" },
		"created in future": func(r *Response) { r.CreatedAt = time.Now().Add(time.Hour) },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			r := valid
			mutate(&r)
			if err := r.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResponseJSONHidesUser(t *testing.T) {
	data, err := json.Marshal(Response{ID: "r1", PollID: "p1", UserID: "secret", Value: NumberValue(3)})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["user_id"]; ok {
		t.Errorf("user ID leaked: %s", data)
	}
	if m["value"] != 3.0 {
		t.Errorf("unexpected value %v", m["value"])
	}
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{`true`, BoolValue(true)},
		{`42.5`, NumberValue(42.5)},
		{`"o1"`, StringValue("o1")},
		{`"\"o1\""`, StringValue(`"o1"`)},
		{`null`, Value{}},
	}
	for _, tt := range tests {
		var v Value
		if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", tt.in, err)
			continue
		}
		if v != tt.want {
			t.Errorf("Unmarshal(%s) = %#v, want %#v", tt.in, v, tt.want)
		}
		out, err := json.Marshal(v)
		if err != nil {
			t.Errorf("Marshal(%#v) error: %v", v, err)
			continue
		}
		if string(out) != tt.in {
			t.Errorf("Marshal round trip of %s gave %s", tt.in, out)
		}
	}

	var v Value
	if err := json.Unmarshal([]byte(`[1,2]`), &v); err == nil {
		t.Error("arrays must be rejected")
	}
	if err := json.Unmarshal([]byte(`{"a":1}`), &v); err == nil {
		t.Error("objects must be rejected")
	}
}

func TestValueYAML(t *testing.T) {
	type row struct {
		Value Value `yaml:"value"`
	}

	tests := []struct {
		doc  string
		want Value
	}{
		{"value: true", BoolValue(true)},
		{"value: 7", NumberValue(7)},
		{"value: 2.5", NumberValue(2.5)},
		{"value: hello", StringValue("hello")},
		{`value: "false"`, StringValue("false")},
		{`value: "42"`, StringValue("42")},
		{"value: null", Value{}},
		{"value: ~", Value{}},
		{"other: 1", Value{}},
	}
	for _, tt := range tests {
		var r row
		if err := yaml.Unmarshal([]byte(tt.doc), &r); err != nil {
			t.Errorf("Unmarshal(%q) error: %v", tt.doc, err)
			continue
		}
		if r.Value != tt.want {
			t.Errorf("Unmarshal(%q) = %#v, want %#v", tt.doc, r.Value, tt.want)
		}
	}

	for _, doc := range []string{"value: [1, 2]", "value: {a: 1}"} {
		var r row
		if err := yaml.Unmarshal([]byte(doc), &r); err == nil {
			t.Errorf("Unmarshal(%q) should reject a non-scalar value", doc)
		}
	}
}

func TestValueString(t *testing.T) {
	for v, want := range map[Value]string{
		BoolValue(false):   "false",
		NumberValue(3.25):  "3.25",
		NumberValue(100):   "100",
		StringValue("abc"): "abc",
		{}:                 "",
	} {
		if got := v.String(); got != want {
			t.Errorf("%#v.String() = %q, want %q", v, got, want)
		}
	}
}

func TestDistributionTotal(t *testing.T) {
	d := Distribution{Labels: []string{"a", "b", "c"}, Values: []int{3, 0, 4}}
	if d.Total() != 7 {
		t.Errorf("Total() = %d, want 7", d.Total())
	}
}

func TestDigestEntryValidate(t *testing.T) {
	valid := DigestEntry{
		ID: "d1", PollID: "p1", Question: "Coffee?", ResponseCount: 12,
		Insights:    []Insight{{Kind: InsightGlobal, Text: "x", Icon: IconChart, Color: ColorBlue}},
		GeneratedAt: time.Now().Add(-time.Second),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	tests := map[string]func(e *DigestEntry){
		"empty ID":         func(e *DigestEntry) { e.ID = "" },
		"empty poll":       func(e *DigestEntry) { e.PollID = "" },
		"empty question":   func(e *DigestEntry) { e.Question = "" },
		"negative count":   func(e *DigestEntry) { e.ResponseCount = -1 },
		"no insights":      func(e *DigestEntry) { e.Insights = nil },
		"generated future": func(e *DigestEntry) { e.GeneratedAt = time.Now().Add(time.Hour) },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			e := valid
			mutate(&e)
			if err := e.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
