package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/pollsight/internal/models"
)

const responseColumns = `id, poll_id, user_id, value, age_range, gender, region, occupation, created_at`

// AddResponse stores a response and bumps the poll's response counter in one
// transaction. A second response from the same user to the same poll fails
// with ErrDuplicateResponse.
func (s *Storage) AddResponse(ctx context.Context, r *models.Response) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	value, err := marshalJSON(r.Value)
	if err != nil {
		return fmt.Errorf("failed to encode response value: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.rebind(`UPDATE polls SET response_count = response_count + 1 WHERE id = ?`), r.PollID)
	if err != nil {
		return fmt.Errorf("failed to update response count: %w", err)
	}
	if err := requireRow(res, "poll", r.PollID); err != nil {
		return err
	}

	d := r.Demographics
	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO responses (`+responseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.PollID, r.UserID, value, d.AgeRange, d.Gender, d.Region, d.Occupation, r.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateResponse
		}
		return fmt.Errorf("failed to insert response: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit response: %w", err)
	}
	return nil
}

// GetResponses returns a poll's responses in submission order, restricted to
// responders whose demographic snapshot matches filters.
func (s *Storage) GetResponses(ctx context.Context, pollID string, filters models.Filters) ([]models.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE poll_id = ?`
	args := []any{pollID}

	for _, f := range []struct {
		column, value string
	}{
		{"age_range", filters.AgeRange},
		{"gender", filters.Gender},
		{"region", filters.Region},
		{"occupation", filters.Occupation},
	} {
		if f.value != "" {
			query += " AND " + f.column + " = ?"
			args = append(args, f.value)
		}
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	responses := make([]models.Response, 0)
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	return responses, nil
}

// GetUserResponse returns userID's response to pollID.
func (s *Storage) GetUserResponse(ctx context.Context, pollID, userID string) (*models.Response, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+responseColumns+` FROM responses WHERE poll_id = ? AND user_id = ?`), pollID, userID)
	r, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("response of %s to poll %s: %w", userID, pollID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanResponse(row rowScanner) (models.Response, error) {
	var (
		r         models.Response
		value     string
		createdAt int64
	)
	d := &r.Demographics
	err := row.Scan(&r.ID, &r.PollID, &r.UserID, &value, &d.AgeRange, &d.Gender, &d.Region, &d.Occupation, &createdAt)
	if err != nil {
		return r, fmt.Errorf("failed to scan response: %w", err)
	}
	if err := json.Unmarshal([]byte(value), &r.Value); err != nil {
		return r, fmt.Errorf("failed to decode value of response %s: %w", r.ID, err)
	}
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	return r, nil
}
