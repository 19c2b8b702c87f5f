package models

import (
	"errors"
	"time"
)

// Response is one user's answer to one poll, together with the responder's
// demographic profile as it was when the answer was submitted.
type Response struct {
	ID           string       `json:"id"`
	PollID       string       `json:"poll_id"`
	UserID       string       `json:"-"` // never exposed; responses are anonymous
	Value        Value        `json:"value"`
	Demographics Demographics `json:"demographics"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Validate checks that all response fields are valid.
func (r *Response) Validate() error {
	if r.ID == "" {
		return errors.New("response ID must not be empty")
	}
	if r.PollID == "" {
		return errors.New("poll ID must not be empty")
	}
	if r.UserID == "" {
		return errors.New("user ID must not be empty")
	}
	if r.Value.IsNone() {
		return errors.New("response value must not be empty")
	}
	if err := r.Demographics.Validate(); err != nil {
		return err
	}
	if r.CreatedAt.After(time.Now()) {
		return errors.New("created at must not be in the future")
	}
	return nil
}

// Values extracts the raw values of a response set in order.
func Values(responses []Response) []Value {
	values := make([]Value, len(responses))
	for i, r := range responses {
		values[i] = r.Value
	}
	return values
}
