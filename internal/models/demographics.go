package models

import "fmt"

// DemographicAxis names one dimension of a demographic profile.
type DemographicAxis string

const (
	AxisAgeRange   DemographicAxis = "ageRange"
	AxisGender     DemographicAxis = "gender"
	AxisRegion     DemographicAxis = "region"
	AxisOccupation DemographicAxis = "occupation"
)

// Valid reports whether a is a known axis.
func (a DemographicAxis) Valid() bool {
	switch a {
	case AxisAgeRange, AxisGender, AxisRegion, AxisOccupation:
		return true
	}
	return false
}

// Fixed category sets for each axis.
var (
	AgeRanges   = []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}
	Genders     = []string{"male", "female", "non-binary", "prefer-not-to-say"}
	Regions     = []string{"North America", "Europe", "Asia", "South America", "Africa", "Australia"}
	Occupations = []string{"Technology", "Education", "Healthcare", "Finance", "Retail", "Other"}
)

// Demographics is a user's optional self-reported profile. Every field may be
// empty; most users never fill it in.
type Demographics struct {
	AgeRange   string `json:"age_range,omitempty" yaml:"age_range"`
	Gender     string `json:"gender,omitempty" yaml:"gender"`
	Region     string `json:"region,omitempty" yaml:"region"`
	Occupation string `json:"occupation,omitempty" yaml:"occupation"`
}

// Validate checks that every present field holds a known category.
func (d *Demographics) Validate() error {
	checks := []struct {
		axis  DemographicAxis
		value string
		set   []string
	}{
		{AxisAgeRange, d.AgeRange, AgeRanges},
		{AxisGender, d.Gender, Genders},
		{AxisRegion, d.Region, Regions},
		{AxisOccupation, d.Occupation, Occupations},
	}
	for _, c := range checks {
		if c.value != "" && !contains(c.set, c.value) {
			return fmt.Errorf("invalid %s %q", c.axis, c.value)
		}
	}
	return nil
}

// IsComplete reports whether the profile can drive demographic comparisons.
// Occupation is not required.
func (d *Demographics) IsComplete() bool {
	return d != nil && d.AgeRange != "" && d.Gender != "" && d.Region != ""
}

// Get returns the profile's value on one axis.
func (d *Demographics) Get(axis DemographicAxis) string {
	switch axis {
	case AxisAgeRange:
		return d.AgeRange
	case AxisGender:
		return d.Gender
	case AxisRegion:
		return d.Region
	case AxisOccupation:
		return d.Occupation
	}
	return ""
}

// Filters restricts a response query to one demographic subgroup. Empty fields
// do not filter.
type Filters struct {
	AgeRange   string `json:"age_range,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Region     string `json:"region,omitempty"`
	Occupation string `json:"occupation,omitempty"`
}

// IsEmpty reports whether no predicate is set.
func (f Filters) IsEmpty() bool {
	return f == Filters{}
}

// Matches reports whether a responder profile satisfies every set predicate.
func (f Filters) Matches(d Demographics) bool {
	return (f.AgeRange == "" || f.AgeRange == d.AgeRange) &&
		(f.Gender == "" || f.Gender == d.Gender) &&
		(f.Region == "" || f.Region == d.Region) &&
		(f.Occupation == "" || f.Occupation == d.Occupation)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
