package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rewired-gh/pollsight/internal/logger"
	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/stats"
	"github.com/rewired-gh/pollsight/internal/storage"
)

// CreatePoll validates and stores a new poll. The ID and option IDs are
// generated when empty; counters start at zero and the poll opens active.
func (s *Service) CreatePoll(ctx context.Context, poll *models.Poll) (*models.Poll, error) {
	p := *poll
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Options = make([]models.Option, len(poll.Options))
	for i, o := range poll.Options {
		if strings.TrimSpace(o.ID) == "" {
			o.ID = fmt.Sprintf("o%d", i+1)
		}
		p.Options[i] = o
	}
	p.Upvotes = 0
	p.ResponseCount = 0
	p.IsActive = true
	p.CreatedAt = s.now().UTC()

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoll, err)
	}
	if err := s.repo.CreatePoll(ctx, &p); err != nil {
		return nil, err
	}
	logger.Info("Created %s poll %s", p.Type, p.ID)
	return &p, nil
}

// SubmitResponse records userID's answer to pollID. The responder's current
// profile is copied onto the response so later filtering by demographics
// reflects who they were when they answered.
func (s *Service) SubmitResponse(ctx context.Context, pollID, userID string, v models.Value) (*models.Response, error) {
	if userID == "" {
		s.metrics.ResponseRejected("invalid")
		return nil, fmt.Errorf("%w: user ID must not be empty", ErrInvalidValue)
	}

	poll, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if !poll.IsActive {
		s.metrics.ResponseRejected("closed")
		return nil, ErrPollClosed
	}
	if err := ValidateValue(poll, v); err != nil {
		s.metrics.ResponseRejected("invalid")
		return nil, err
	}

	demo, err := s.repo.GetUserDemographics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load demographics: %w", err)
	}

	r := &models.Response{
		ID:        uuid.NewString(),
		PollID:    pollID,
		UserID:    userID,
		Value:     v,
		CreatedAt: s.now().UTC(),
	}
	if demo != nil {
		r.Demographics = *demo
	}

	if err := s.repo.AddResponse(ctx, r); err != nil {
		if errors.Is(err, storage.ErrDuplicateResponse) {
			s.metrics.ResponseRejected("duplicate")
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.Save(userID, pollID, v)
	}
	s.metrics.ResponseSubmitted(string(poll.Type))
	logger.Debug("Recorded response %s to poll %s", r.ID, pollID)
	return r, nil
}

// ValidateValue checks that v is an acceptable answer to poll: a boolean for
// boolean polls, a known option for choice polls, a number inside the
// configured bounds for numeric and slider polls.
func ValidateValue(poll *models.Poll, v models.Value) error {
	if v.IsNone() {
		return fmt.Errorf("%w: value is required", ErrInvalidValue)
	}

	switch poll.Type {
	case models.PollTypeBoolean:
		if _, ok := stats.CoerceBool(v); !ok {
			return fmt.Errorf("%w: %s is not a yes/no answer", ErrInvalidValue, v)
		}

	case models.PollTypeChoice:
		key, ok := stats.NormalizeChoice(v)
		if !ok {
			return fmt.Errorf("%w: %s is not a choice", ErrInvalidValue, v)
		}
		if len(poll.Options) > 0 && !poll.HasOption(key) {
			return fmt.Errorf("%w: unknown option %q", ErrInvalidValue, key)
		}

	case models.PollTypeNumeric, models.PollTypeSlider:
		n, ok := stats.CoerceNumber(v)
		if !ok {
			return fmt.Errorf("%w: %s is not a number", ErrInvalidValue, v)
		}
		if poll.MinValue != nil && n < *poll.MinValue {
			return fmt.Errorf("%w: %v is below the minimum %v", ErrInvalidValue, n, *poll.MinValue)
		}
		if poll.MaxValue != nil && n > *poll.MaxValue {
			return fmt.Errorf("%w: %v is above the maximum %v", ErrInvalidValue, n, *poll.MaxValue)
		}

	default:
		return fmt.Errorf("%w: poll type %q does not accept responses", ErrInvalidValue, poll.Type)
	}
	return nil
}
