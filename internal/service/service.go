// Package service connects the response store to the aggregation and insight
// components. It is the only layer on the request path that performs I/O;
// stats and insight stay pure.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/pollsight/internal/cache"
	"github.com/rewired-gh/pollsight/internal/insight"
	"github.com/rewired-gh/pollsight/internal/logger"
	"github.com/rewired-gh/pollsight/internal/metrics"
	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/stats"
	"github.com/rewired-gh/pollsight/internal/storage"
)

// Store is the read contract the aggregation path depends on.
type Store interface {
	GetPoll(ctx context.Context, pollID string) (*models.Poll, error)
	GetResponses(ctx context.Context, pollID string, filters models.Filters) ([]models.Response, error)
	GetUserDemographics(ctx context.Context, userID string) (*models.Demographics, error)
}

// Repository adds the writes and listings used by the outer surfaces.
// *storage.Storage implements it.
type Repository interface {
	Store
	CreatePoll(ctx context.Context, poll *models.Poll) error
	ListPolls(ctx context.Context, opts storage.ListOptions) ([]*models.Poll, error)
	Upvote(ctx context.Context, pollID string) error
	AddResponse(ctx context.Context, r *models.Response) error
	GetUserResponse(ctx context.Context, pollID, userID string) (*models.Response, error)
	SaveDemographics(ctx context.Context, userID string, d models.Demographics) error
}

var (
	// ErrPollClosed is returned when responding to an inactive poll.
	ErrPollClosed = errors.New("poll is not accepting responses")
	// ErrInvalidValue is returned when a value does not fit the poll type.
	ErrInvalidValue = errors.New("invalid response value")
	// ErrInvalidPoll is returned when a new poll fails validation.
	ErrInvalidPoll = errors.New("invalid poll")
	// ErrInvalidProfile is returned when demographics fail validation.
	ErrInvalidProfile = errors.New("invalid demographics")
)

// Options tunes a Service.
type Options struct {
	// Concurrency bounds parallel per-poll work in Summaries. Zero means 4.
	Concurrency int
}

// Service is safe for concurrent use.
type Service struct {
	repo      Repository
	cache     *cache.Cache
	generator *insight.Generator
	metrics   *metrics.Metrics
	opts      Options
	now       func() time.Time
}

// New creates a Service. cache and m may be nil; a nil generator uses the
// insight defaults.
func New(repo Repository, c *cache.Cache, gen *insight.Generator, m *metrics.Metrics, opts Options) *Service {
	if gen == nil {
		gen = insight.NewGenerator(nil)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Service{
		repo:      repo,
		cache:     c,
		generator: gen,
		metrics:   m,
		opts:      opts,
		now:       time.Now,
	}
}

// Summary is a poll with its current statistics and global insights.
type Summary struct {
	Poll     *models.Poll     `json:"poll"`
	Stats    models.Stats     `json:"stats"`
	Insights []models.Insight `json:"insights"`
}

// GetPoll returns one poll.
func (s *Service) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	return s.repo.GetPoll(ctx, pollID)
}

// ListPolls lists polls. When the listing excludes a user's answered polls the
// local cache is also consulted, so an answer recorded moments ago is skipped
// even before the store reflects it.
func (s *Service) ListPolls(ctx context.Context, opts storage.ListOptions) ([]*models.Poll, error) {
	polls, err := s.repo.ListPolls(ctx, opts)
	if err != nil {
		return nil, err
	}
	if opts.UnansweredBy == "" || s.cache == nil {
		return polls, nil
	}
	out := polls[:0]
	for _, p := range polls {
		if !s.cache.HasResponded(opts.UnansweredBy, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Upvote increments a poll's upvote counter and returns the updated poll.
func (s *Service) Upvote(ctx context.Context, pollID string) (*models.Poll, error) {
	if err := s.repo.Upvote(ctx, pollID); err != nil {
		return nil, err
	}
	return s.repo.GetPoll(ctx, pollID)
}

// SaveDemographics stores a user's profile.
func (s *Service) SaveDemographics(ctx context.Context, userID string, d models.Demographics) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID must not be empty", ErrInvalidProfile)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return s.repo.SaveDemographics(ctx, userID, d)
}

// GetDemographics returns a user's profile or nil.
func (s *Service) GetDemographics(ctx context.Context, userID string) (*models.Demographics, error) {
	return s.repo.GetUserDemographics(ctx, userID)
}

// PollStats aggregates a poll's responses, optionally restricted to one
// demographic subgroup.
func (s *Service) PollStats(ctx context.Context, pollID string, filters models.Filters) (*models.Poll, models.Stats, error) {
	poll, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		return nil, models.Stats{}, err
	}
	st, err := s.aggregate(ctx, poll, filters)
	if err != nil {
		return nil, models.Stats{}, err
	}
	return poll, st, nil
}

func (s *Service) aggregate(ctx context.Context, poll *models.Poll, filters models.Filters) (models.Stats, error) {
	start := time.Now()
	responses, err := s.repo.GetResponses(ctx, poll.ID, filters)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to load responses of poll %s: %w", poll.ID, err)
	}

	st := stats.Compute(poll, models.Values(responses))
	if st.Excluded > 0 {
		logger.Debug("Poll %s: %d of %d stored values could not be aggregated", poll.ID, st.Excluded, len(responses))
	}
	s.metrics.Aggregated(string(poll.Type), st.Excluded, time.Since(start))
	return st, nil
}

// GlobalInsights returns statements about the whole poll.
func (s *Service) GlobalInsights(ctx context.Context, pollID string) ([]models.Insight, error) {
	poll, st, err := s.PollStats(ctx, pollID, models.Filters{})
	if err != nil {
		return nil, err
	}
	return s.generator.Global(poll, st), nil
}

// PersonalizedInsights compares userID's answer with the population. A user
// who has not answered gets an empty list.
func (s *Service) PersonalizedInsights(ctx context.Context, pollID, userID string) ([]models.Insight, error) {
	poll, st, err := s.PollStats(ctx, pollID, models.Filters{})
	if err != nil {
		return nil, err
	}

	value, err := s.userValue(ctx, pollID, userID)
	if err != nil {
		return nil, err
	}
	demo, err := s.repo.GetUserDemographics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load demographics: %w", err)
	}
	return s.generator.Personalized(poll, st, value, demo), nil
}

// userValue looks up a user's own answer, cache first. A missing answer is
// the none value, not an error.
func (s *Service) userValue(ctx context.Context, pollID, userID string) (models.Value, error) {
	if userID == "" {
		return models.Value{}, nil
	}
	if s.cache != nil {
		if v, err := s.cache.Get(userID, pollID); err == nil {
			s.metrics.CacheHit()
			return v, nil
		}
	}
	s.metrics.CacheMiss()

	r, err := s.repo.GetUserResponse(ctx, pollID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Value{}, nil
	}
	if err != nil {
		return models.Value{}, fmt.Errorf("failed to load response: %w", err)
	}
	if s.cache != nil {
		s.cache.Save(userID, pollID, r.Value)
	}
	return r.Value, nil
}

// Summarize computes statistics and global insights for one poll.
func (s *Service) Summarize(ctx context.Context, poll *models.Poll) (Summary, error) {
	st, err := s.aggregate(ctx, poll, models.Filters{})
	if err != nil {
		return Summary{}, err
	}
	return Summary{Poll: poll, Stats: st, Insights: s.generator.Global(poll, st)}, nil
}

// Summaries summarizes several polls in parallel. Result order matches polls.
func (s *Service) Summaries(ctx context.Context, polls []*models.Poll) ([]Summary, error) {
	out := make([]Summary, len(polls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, poll := range polls {
		g.Go(func() error {
			sum, err := s.Summarize(gctx, poll)
			if err != nil {
				return err
			}
			out[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
