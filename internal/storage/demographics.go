package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/pollsight/internal/models"
)

// SaveDemographics creates or replaces a user's profile.
func (s *Storage) SaveDemographics(ctx context.Context, userID string, d models.Demographics) error {
	if userID == "" {
		return errors.New("user ID must not be empty")
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid demographics: %w", err)
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO user_demographics (user_id, age_range, gender, region, occupation, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			age_range = excluded.age_range,
			gender = excluded.gender,
			region = excluded.region,
			occupation = excluded.occupation,
			updated_at = excluded.updated_at`),
		userID, d.AgeRange, d.Gender, d.Region, d.Occupation, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save demographics: %w", err)
	}
	return nil
}

// GetUserDemographics returns a user's profile, or nil when the user has none.
func (s *Storage) GetUserDemographics(ctx context.Context, userID string) (*models.Demographics, error) {
	var d models.Demographics
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT age_range, gender, region, occupation FROM user_demographics WHERE user_id = ?`), userID,
	).Scan(&d.AgeRange, &d.Gender, &d.Region, &d.Occupation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get demographics: %w", err)
	}
	return &d, nil
}
