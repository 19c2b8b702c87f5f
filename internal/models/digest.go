package models

import (
	"errors"
	"time"
)

// DigestEntry is one poll selected for a periodic insight digest.
type DigestEntry struct {
	ID            string    `json:"id"`
	PollID        string    `json:"poll_id"`
	Question      string    `json:"question"`
	Category      string    `json:"category,omitempty"`
	ResponseCount int       `json:"response_count"`
	Insights      []Insight `json:"insights"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// Validate checks that all digest entry fields are valid
func (e *DigestEntry) Validate() error {
	if e.ID == "" {
		return errors.New("digest entry ID must not be empty")
	}
	if e.PollID == "" {
		return errors.New("poll ID must not be empty")
	}
	if e.Question == "" {
		return errors.New("question must not be empty")
	}
	if e.ResponseCount < 0 {
		return errors.New("response count must not be negative")
	}
	if len(e.Insights) == 0 {
		return errors.New("digest entry must carry at least one insight")
	}
	if e.GeneratedAt.After(time.Now()) {
		return errors.New("generated at must not be in the future")
	}
	return nil
}
