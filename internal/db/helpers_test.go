package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// deleteUser removes a user and, by cascade, their jobs.
func (db *DB) deleteUser(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// getScheduledScraper retrieves a job by id. Returns (nil, nil) if not found.
func (db *DB) getScheduledScraper(ctx context.Context, id uuid.UUID) (*ScheduledScraper, error) {
	s, err := scanScraper(db.pool.QueryRow(ctx,
		`SELECT `+scraperColumns+` FROM scheduled_scrapers WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scheduled scraper: %w", err)
	}
	return s, nil
}
