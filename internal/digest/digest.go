// Package digest periodically selects the most answered active polls and
// pushes their global insights to a notification channel.
//
// Each cycle lists up to TopK active polls ordered by response count that have
// at least MinResponses answers, summarizes them concurrently, drops polls that
// were already sent within the cooldown and have not gained responses since,
// and hands the rest to a Sender. Per-poll failures are reported as PollError
// values and never abort the cycle.
package digest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/pollsight/internal/logger"
	"github.com/rewired-gh/pollsight/internal/metrics"
	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/service"
	"github.com/rewired-gh/pollsight/internal/storage"
)

// Source provides the polls and per-poll summaries. *service.Service
// implements it.
type Source interface {
	ListPolls(ctx context.Context, opts storage.ListOptions) ([]*models.Poll, error)
	Summarize(ctx context.Context, poll *models.Poll) (service.Summary, error)
}

// Sender delivers a digest. *telegram.Client implements it.
type Sender interface {
	Send(ctx context.Context, entries []models.DigestEntry) error
}

// Options configures a Digest.
type Options struct {
	Interval     time.Duration
	TopK         int
	MinResponses int
	Cooldown     time.Duration
	Concurrency  int
}

// notifiedRecord tracks a previously sent poll for cooldown deduplication.
type notifiedRecord struct {
	ResponseCount int
	SentAt        time.Time
}

// Digest builds and sends insight digests.
type Digest struct {
	source  Source
	sender  Sender
	metrics *metrics.Metrics
	opts    Options

	mu           sync.Mutex
	notifiedPoll map[string]notifiedRecord
	now          func() time.Time
}

// New creates a Digest. sender may be nil, in which case cycles are computed
// and logged but nothing is delivered.
func New(source Source, sender Sender, m *metrics.Metrics, opts Options) *Digest {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	return &Digest{
		source:       source,
		sender:       sender,
		metrics:      m,
		opts:         opts,
		notifiedPoll: make(map[string]notifiedRecord),
		now:          time.Now,
	}
}

// PollError represents a per-poll error during digest collection
type PollError struct {
	PollID string
	Err    error
}

func (e PollError) Error() string {
	return fmt.Sprintf("digest error for poll %s: %v", e.PollID, e.Err)
}

func (e PollError) Unwrap() error { return e.Err }

// Collect lists the digest candidates and summarizes them. Entries keep the
// listing order. Polls without any insight are skipped. The returned error is
// only set when the listing itself fails.
func (d *Digest) Collect(ctx context.Context) ([]models.DigestEntry, []PollError, error) {
	polls, err := d.source.ListPolls(ctx, storage.ListOptions{
		ActiveOnly:   true,
		Order:        storage.OrderTrending,
		MinResponses: d.opts.MinResponses,
		Limit:        d.opts.TopK,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list polls: %w", err)
	}

	slots := make([]*models.DigestEntry, len(polls))
	now := d.now().UTC()
	var (
		errsMu  sync.Mutex
		pollErr []PollError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for i, poll := range polls {
		g.Go(func() error {
			sum, err := d.source.Summarize(gctx, poll)
			if err != nil {
				errsMu.Lock()
				pollErr = append(pollErr, PollError{PollID: poll.ID, Err: err})
				errsMu.Unlock()
				return nil
			}
			if len(sum.Insights) == 0 {
				return nil
			}
			slots[i] = &models.DigestEntry{
				ID:            uuid.NewString(),
				PollID:        poll.ID,
				Question:      poll.Question,
				Category:      poll.Category,
				ResponseCount: poll.ResponseCount,
				Insights:      sum.Insights,
				GeneratedAt:   now,
			}
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]models.DigestEntry, 0, len(slots))
	for _, e := range slots {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, pollErr, nil
}

// FilterRecentlySent removes entries whose poll was notified within cooldown
// and has the same response count as then. Returns a non-nil slice.
func (d *Digest) FilterRecentlySent(entries []models.DigestEntry, cooldown time.Duration) []models.DigestEntry {
	now := d.now()
	result := make([]models.DigestEntry, 0, len(entries))

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range entries {
		rec, exists := d.notifiedPoll[e.PollID]
		if exists && now.Sub(rec.SentAt) < cooldown && rec.ResponseCount == e.ResponseCount {
			continue
		}
		result = append(result, e)
	}
	return result
}

// RecordNotified records all entries as notified at the current time.
// Call this after a successful send to enable cooldown deduplication.
func (d *Digest) RecordNotified(entries []models.DigestEntry) {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range entries {
		d.notifiedPoll[e.PollID] = notifiedRecord{
			ResponseCount: e.ResponseCount,
			SentAt:        now,
		}
	}
}

// RunOnce performs one digest cycle and returns the entries that were sent.
func (d *Digest) RunOnce(ctx context.Context) ([]models.DigestEntry, error) {
	start := time.Now()
	logger.Debug("Starting digest cycle (top_k: %d, min_responses: %d)", d.opts.TopK, d.opts.MinResponses)

	entries, pollErrs, err := d.Collect(ctx)
	if err != nil {
		d.metrics.DigestRun(metrics.DigestFailed, 0)
		return nil, err
	}
	for _, pe := range pollErrs {
		logger.Warn("Failed to summarize poll %s: %v", pe.PollID, pe.Err)
	}

	entries = d.FilterRecentlySent(entries, d.opts.Cooldown)
	if len(entries) == 0 {
		logger.Info("No polls to include in this digest")
		d.metrics.DigestRun(metrics.DigestEmpty, 0)
		return entries, nil
	}

	if d.sender == nil {
		logger.Debug("Digest has %d polls but no sender is configured", len(entries))
		d.metrics.DigestRun(metrics.DigestSkipped, 0)
		return []models.DigestEntry{}, nil
	}
	if err := d.sender.Send(ctx, entries); err != nil {
		d.metrics.DigestRun(metrics.DigestFailed, 0)
		return nil, fmt.Errorf("failed to send digest: %w", err)
	}
	d.RecordNotified(entries)
	d.metrics.DigestRun(metrics.DigestSent, len(entries))

	logger.Info("Sent digest with %d polls in %v", len(entries), time.Since(start))
	return entries, nil
}

// Run performs a cycle immediately and then one per interval until ctx is
// canceled. Failed cycles are logged and retried on the next tick.
func (d *Digest) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	logger.Info("Starting digest loop (interval: %v, top_k: %d, cooldown: %v)",
		d.opts.Interval, d.opts.TopK, d.opts.Cooldown)

	consecutiveFailures := 0
	cycle := func() {
		if _, err := d.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			consecutiveFailures++
			logger.Error("Digest cycle failed (%d in a row): %v", consecutiveFailures, err)
			return
		}
		if consecutiveFailures > 0 {
			logger.Info("Digest recovered after %d failed cycles", consecutiveFailures)
		}
		consecutiveFailures = 0
	}

	cycle()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Digest loop stopped")
			return nil
		case <-ticker.C:
			cycle()
		}
	}
}
