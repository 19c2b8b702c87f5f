package models

// Distribution pairs bucket labels with their counts. Labels[i] and Values[i]
// always describe the same bucket.
type Distribution struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// Total sums the bucket counts.
func (d Distribution) Total() int {
	total := 0
	for _, v := range d.Values {
		total += v
	}
	return total
}

// Range is the half-open numeric interval [Start, End) covered by a bucket.
// The last bucket of a distribution also includes End.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Stats is a derived, disposable summary of a poll's responses. It is
// recomputed on every request and never persisted.
type Stats struct {
	Count        int          `json:"count"`
	Distribution Distribution `json:"distribution"`
	Mean         *float64     `json:"mean,omitempty"`
	Median       *float64     `json:"median,omitempty"`
	Mode         *string      `json:"mode,omitempty"`
	Ranges       []Range      `json:"ranges,omitempty"`   // numeric polls only, parallel to labels
	Excluded     int          `json:"excluded,omitempty"` // values dropped by coercion

	// Normalized choice values behind each label. Two keys may share a label.
	ChoiceKeys []string `json:"-"`

	// Bucket layout the numeric distribution was counted with.
	BucketStart float64 `json:"-"`
	BucketWidth float64 `json:"-"`
}
