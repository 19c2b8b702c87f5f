package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rewired-gh/pollsight/internal/models"
)

// PollOrder selects the ordering of ListPolls.
type PollOrder string

const (
	// OrderRecent lists the newest polls first.
	OrderRecent PollOrder = "recent"
	// OrderTrending lists polls by response count, then newest first.
	OrderTrending PollOrder = "trending"
)

// ListOptions narrows a ListPolls query. The zero value lists every poll,
// newest first.
type ListOptions struct {
	ActiveOnly   bool
	Order        PollOrder
	UnansweredBy string // skip polls this user already answered
	MinResponses int
	Limit        int
}

// CreatePoll stores a new poll.
func (s *Storage) CreatePoll(ctx context.Context, poll *models.Poll) error {
	if err := poll.Validate(); err != nil {
		return fmt.Errorf("invalid poll: %w", err)
	}

	options, err := marshalJSON(nonNilOptions(poll.Options))
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	filters, err := marshalJSON(nonNilAxes(poll.DemographicFilters))
	if err != nil {
		return fmt.Errorf("failed to encode demographic filters: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO polls (`+pollColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		poll.ID, poll.CreatorID, poll.Question, poll.Description, poll.Category, string(poll.Type),
		nullFloat(poll.MinValue), nullFloat(poll.MaxValue), options, filters,
		poll.Upvotes, poll.ResponseCount, poll.IsActive, poll.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("poll %s: %w", poll.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	return nil
}

// GetPoll retrieves a poll by ID.
func (s *Storage) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+pollColumns+` FROM polls WHERE id = ?`), id)
	poll, err := scanPoll(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("poll %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll %s: %w", id, err)
	}
	return poll, nil
}

// ListPolls returns polls matching opts.
func (s *Storage) ListPolls(ctx context.Context, opts ListOptions) ([]*models.Poll, error) {
	var (
		where []string
		args  []any
	)
	if opts.ActiveOnly {
		where = append(where, "is_active = ?")
		args = append(args, true)
	}
	if opts.MinResponses > 0 {
		where = append(where, "response_count >= ?")
		args = append(args, opts.MinResponses)
	}
	if opts.UnansweredBy != "" {
		where = append(where, "NOT EXISTS (SELECT 1 FROM responses r WHERE r.poll_id = polls.id AND r.user_id = ?)")
		args = append(args, opts.UnansweredBy)
	}

	query := `SELECT ` + pollColumns + ` FROM polls`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	switch opts.Order {
	case OrderTrending:
		query += " ORDER BY response_count DESC, created_at DESC, id ASC"
	default:
		query += " ORDER BY created_at DESC, id ASC"
	}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	polls := make([]*models.Poll, 0)
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	return polls, nil
}

// Trending returns up to limit active polls ordered by response count.
func (s *Storage) Trending(ctx context.Context, limit int) ([]*models.Poll, error) {
	return s.ListPolls(ctx, ListOptions{ActiveOnly: true, Order: OrderTrending, Limit: limit})
}

// Unanswered returns the active polls userID has not responded to, newest
// first.
func (s *Storage) Unanswered(ctx context.Context, userID string) ([]*models.Poll, error) {
	return s.ListPolls(ctx, ListOptions{ActiveOnly: true, UnansweredBy: userID})
}

// Upvote increments a poll's upvote counter.
func (s *Storage) Upvote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE polls SET upvotes = upvotes + 1 WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to upvote poll %s: %w", id, err)
	}
	return requireRow(res, "poll", id)
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func nonNilOptions(o []models.Option) []models.Option {
	if o == nil {
		return []models.Option{}
	}
	return o
}

func nonNilAxes(a []models.DemographicAxis) []models.DemographicAxis {
	if a == nil {
		return []models.DemographicAxis{}
	}
	return a
}
