package models

// InsightKind separates statements about the whole poll from statements about
// one user's answer.
type InsightKind string

const (
	InsightGlobal       InsightKind = "global"
	InsightPersonalized InsightKind = "personalized"
)

// Semantic icon tags. Surfaces map them to glyphs.
const (
	IconRocket = "rocket"
	IconCheck  = "check"
	IconCross  = "cross"
	IconChart  = "chart"
	IconTrophy = "trophy"
	IconDown   = "trend-down"
	IconUp     = "trend-up"
	IconPeople = "people"
	IconStar   = "star"
	IconTarget = "target"
	IconGem    = "gem"
	IconAge    = "age"
	IconMale   = "male"
	IconFemale = "female"
	IconPerson = "person"
	IconGlobe  = "globe"
)

// Semantic color tags.
const (
	ColorBlue    = "blue"
	ColorGreen   = "green"
	ColorRed     = "red"
	ColorGray    = "gray"
	ColorYellow  = "yellow"
	ColorPurple  = "purple"
	ColorIndigo  = "indigo"
	ColorPink    = "pink"
	ColorEmerald = "emerald"
)

// Insight is a short generated statement. Insights are regenerated per request
// and never stored.
type Insight struct {
	Kind         InsightKind `json:"type"`
	Text         string      `json:"text"`
	Icon         string      `json:"icon"`
	Color        string      `json:"color"`
	IsComparison bool        `json:"is_comparison,omitempty"`
}
