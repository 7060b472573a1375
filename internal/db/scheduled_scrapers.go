package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/cojournalist/internal/types"
)

const scraperColumns = `id, user_id, name, criteria, regularity, day_number, time_utc,
	monitoring, scraper_service, prompt_summary, created_at`

func scanScraper(row pgx.Row) (*ScheduledScraper, error) {
	var s ScheduledScraper
	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.Criteria, &s.Regularity, &s.DayNumber, &s.TimeUTC,
		&s.Monitoring, &s.ScraperService, &s.PromptSummary, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateScheduledScraper inserts a job row and returns it
func (db *DB) CreateScheduledScraper(ctx context.Context, in *types.NewScheduledJob) (*ScheduledScraper, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO scheduled_scrapers
		   (user_id, name, criteria, regularity, day_number, time_utc, monitoring, scraper_service, prompt_summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+scraperColumns,
		in.UserID, in.Name, in.Criteria, in.Regularity, in.DayNumber, in.TimeUTC,
		in.Monitoring, in.ScraperService, in.PromptSummary,
	)
	s, err := scanScraper(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduled scraper: %w", err)
	}
	return s, nil
}

// ListScheduledScrapers returns a user's jobs, newest first
func (db *DB) ListScheduledScrapers(ctx context.Context, userID uuid.UUID) ([]ScheduledScraper, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+scraperColumns+` FROM scheduled_scrapers
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled scrapers: %w", err)
	}
	defer rows.Close()

	var out []ScheduledScraper
	for rows.Next() {
		s, err := scanScraper(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled scraper: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list scheduled scrapers: %w", err)
	}
	return out, nil
}

// DeleteScheduledScraper deletes a job owned by userID.
// Returns false when no row matched.
func (db *DB) DeleteScheduledScraper(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM scheduled_scrapers WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete scheduled scraper: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
