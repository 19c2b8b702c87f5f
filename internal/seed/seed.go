// Package seed loads demo polls, profiles and responses from YAML fixtures.
//
// A fixture looks like:
//
//	profiles:
//	  alice: {age_range: 25-34, gender: female, region: Europe}
//	polls:
//	  - id: remote-work
//	    question: Is remote work here to stay?
//	    type: boolean
//	    responses:
//	      - {user: alice, value: true}
//	    tally:
//	      - {value: true, count: 40}
//	      - {value: false, count: 12}
//
// Tally entries are expanded into anonymous responders so large
// distributions can be described compactly.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/pollsight/internal/logger"
	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/storage"
)

// Fixture is the decoded YAML document.
type Fixture struct {
	Profiles map[string]models.Demographics `yaml:"profiles"`
	Polls    []PollFixture                  `yaml:"polls"`
}

// PollFixture describes one poll and its answers.
type PollFixture struct {
	ID                 string                   `yaml:"id"`
	CreatorID          string                   `yaml:"creator_id"`
	Question           string                   `yaml:"question"`
	Description        string                   `yaml:"description"`
	Category           string                   `yaml:"category"`
	Type               models.PollType          `yaml:"type"`
	MinValue           *float64                 `yaml:"min_value"`
	MaxValue           *float64                 `yaml:"max_value"`
	Options            []models.Option          `yaml:"options"`
	DemographicFilters []models.DemographicAxis `yaml:"demographic_filters"`
	Responses          []ResponseFixture        `yaml:"responses"`
	Tally              []TallyFixture           `yaml:"tally"`
}

// ResponseFixture is one named user's answer.
type ResponseFixture struct {
	User  string       `yaml:"user"`
	Value models.Value `yaml:"value"`
}

// TallyFixture repeats one answer Count times from anonymous users.
type TallyFixture struct {
	Value models.Value `yaml:"value"`
	Count int          `yaml:"count"`
}

// Target receives the seeded data. *service.Service implements it.
type Target interface {
	GetPoll(ctx context.Context, pollID string) (*models.Poll, error)
	SaveDemographics(ctx context.Context, userID string, d models.Demographics) error
	CreatePoll(ctx context.Context, poll *models.Poll) (*models.Poll, error)
	SubmitResponse(ctx context.Context, pollID, userID string, v models.Value) (*models.Response, error)
}

// Result counts what Apply stored.
type Result struct {
	Profiles  int `json:"profiles"`
	Polls     int `json:"polls"`
	Responses int `json:"responses"`
	Skipped   int `json:"skipped"`
}

// Decode parses a fixture.
func Decode(r io.Reader) (*Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return &Fixture{}, nil
		}
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	for i, p := range fx.Polls {
		for j, t := range p.Tally {
			if t.Count < 0 {
				return nil, fmt.Errorf("poll %d tally %d: count must not be negative", i, j)
			}
		}
	}
	return &fx, nil
}

// LoadFile decodes the fixture at path.
func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Apply stores the fixture: profiles first so responses snapshot them, then
// each poll followed by its responses. Polls with a fixed ID that already
// exist are reused and responses that were already recorded are skipped, so
// applying the same fixture twice adds nothing.
func Apply(ctx context.Context, t Target, fx *Fixture) (Result, error) {
	var res Result

	for userID, d := range fx.Profiles {
		if err := t.SaveDemographics(ctx, userID, d); err != nil {
			return res, fmt.Errorf("profile %s: %w", userID, err)
		}
		res.Profiles++
	}

	for _, pf := range fx.Polls {
		poll, err := t.CreatePoll(ctx, pf.poll())
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			if poll, err = t.GetPoll(ctx, pf.ID); err != nil {
				return res, fmt.Errorf("poll %s: %w", pf.ID, err)
			}
		case err != nil:
			return res, fmt.Errorf("poll %q: %w", pf.Question, err)
		default:
			res.Polls++
		}

		for _, r := range pf.answers(poll.ID) {
			_, err := t.SubmitResponse(ctx, poll.ID, r.User, r.Value)
			switch {
			case errors.Is(err, storage.ErrDuplicateResponse):
				res.Skipped++
			case err != nil:
				return res, fmt.Errorf("poll %s response from %s: %w", poll.ID, r.User, err)
			default:
				res.Responses++
			}
		}
		logger.Debug("Seeded poll %s", poll.ID)
	}

	logger.Info("Seeded %d profiles, %d polls, %d responses (%d skipped)",
		res.Profiles, res.Polls, res.Responses, res.Skipped)
	return res, nil
}

func (pf PollFixture) poll() *models.Poll {
	creator := pf.CreatorID
	if creator == "" {
		creator = "seed"
	}
	return &models.Poll{
		ID:                 pf.ID,
		CreatorID:          creator,
		Question:           pf.Question,
		Description:        pf.Description,
		Category:           pf.Category,
		Type:               pf.Type,
		MinValue:           pf.MinValue,
		MaxValue:           pf.MaxValue,
		Options:            pf.Options,
		DemographicFilters: pf.DemographicFilters,
	}
}

// answers expands explicit responses and tallies in fixture order.
func (pf PollFixture) answers(pollID string) []ResponseFixture {
	out := make([]ResponseFixture, 0, len(pf.Responses))
	out = append(out, pf.Responses...)
	n := 0
	for _, t := range pf.Tally {
		for i := 0; i < t.Count; i++ {
			n++
			out = append(out, ResponseFixture{User: fmt.Sprintf("%s-anon-%d", pollID, n), Value: t.Value})
		}
	}
	return out
}
