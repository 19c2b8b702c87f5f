// Package models defines the core domain entities for pollsight.
// These models represent polls, individual responses, demographic profiles and
// the derived statistics and insights computed from them.
// All persisted models include built-in validation to ensure data integrity
// throughout the application.
//
// Terminology:
//   - Poll: a question with one of four response kinds.
//   - Response: one user's answer to one poll (at most one per user and poll).
//   - Stats: a disposable aggregate view computed from a set of responses.
//   - Insight: a short generated statement about a poll or about a user's answer.
package models

import (
	"errors"
	"fmt"
	"time"
)

// PollType identifies the kind of answer a poll accepts.
type PollType string

const (
	PollTypeBoolean PollType = "boolean" // Yes/No
	PollTypeSlider  PollType = "slider"  // bounded range, usually 1-100
	PollTypeNumeric PollType = "numeric" // free numeric input
	PollTypeChoice  PollType = "choice"  // one of a fixed set of options
)

// Valid reports whether t is one of the known poll types.
func (t PollType) Valid() bool {
	switch t {
	case PollTypeBoolean, PollTypeSlider, PollTypeNumeric, PollTypeChoice:
		return true
	}
	return false
}

// IsNumeric reports whether responses to t are aggregated into numeric buckets.
func (t PollType) IsNumeric() bool {
	return t == PollTypeSlider || t == PollTypeNumeric
}

// Option is a single selectable answer of a choice poll.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Poll is the read-only configuration the aggregation engine works from.
// It is immutable once responses exist, except for its counters.
type Poll struct {
	ID                 string            `json:"id"`
	CreatorID          string            `json:"creator_id"`
	Question           string            `json:"question"`
	Description        string            `json:"description,omitempty"`
	Category           string            `json:"category,omitempty"`
	Type               PollType          `json:"type"`
	MinValue           *float64          `json:"min_value,omitempty"`
	MaxValue           *float64          `json:"max_value,omitempty"`
	Options            []Option          `json:"options,omitempty"`
	DemographicFilters []DemographicAxis `json:"demographic_filters"`
	Upvotes            int               `json:"upvotes"`
	ResponseCount      int               `json:"response_count"`
	IsActive           bool              `json:"is_active"`
	CreatedAt          time.Time         `json:"created_at"`
}

// Validate checks that all poll fields are valid.
func (p *Poll) Validate() error {
	if p.ID == "" {
		return errors.New("poll ID must not be empty")
	}
	if p.Question == "" {
		return errors.New("poll question must not be empty")
	}
	if !p.Type.Valid() {
		return fmt.Errorf("unknown poll type %q", p.Type)
	}
	if p.MinValue != nil && p.MaxValue != nil && *p.MinValue > *p.MaxValue {
		return errors.New("min value must be <= max value")
	}
	if p.Type == PollTypeChoice {
		if len(p.Options) < 2 {
			return errors.New("choice poll must have at least two options")
		}
		seen := make(map[string]bool, len(p.Options))
		for _, opt := range p.Options {
			if opt.ID == "" {
				return errors.New("option ID must not be empty")
			}
			if seen[opt.ID] {
				return fmt.Errorf("duplicate option ID %q", opt.ID)
			}
			seen[opt.ID] = true
		}
	}
	for _, axis := range p.DemographicFilters {
		if !axis.Valid() {
			return fmt.Errorf("unknown demographic filter %q", axis)
		}
	}
	if p.Upvotes < 0 {
		return errors.New("upvotes must not be negative")
	}
	if p.ResponseCount < 0 {
		return errors.New("response count must not be negative")
	}
	return nil
}

// OptionText returns the display text for an option id. The second result is
// false when no option with that id exists or its text is empty.
func (p *Poll) OptionText(id string) (string, bool) {
	for _, opt := range p.Options {
		if opt.ID == id && opt.Text != "" {
			return opt.Text, true
		}
	}
	return "", false
}

// HasOption reports whether id names one of the poll's options.
func (p *Poll) HasOption(id string) bool {
	for _, opt := range p.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}
