package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cojournalist/internal/types"
)

// User represents a row of the users table
type User struct {
	ID                 uuid.UUID `json:"id"`
	ExternalIdentityID string    `json:"external_identity_id"`
	Email              string    `json:"email"`
	IsPaid             bool      `json:"is_paid"`
	CreatedAt          time.Time `json:"created_at"`
}

// ToAPI converts the row to its API shape
func (u *User) ToAPI() *types.User {
	return &types.User{
		ID:                 u.ID,
		ExternalIdentityID: u.ExternalIdentityID,
		Email:              u.Email,
		IsPaid:             u.IsPaid,
		CreatedAt:          u.CreatedAt,
	}
}

// ScheduledScraper represents a row of the scheduled_scrapers table
type ScheduledScraper struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Criteria       string    `json:"criteria"`
	Regularity     string    `json:"regularity"`
	DayNumber      int       `json:"day_number"`
	TimeUTC        string    `json:"time_utc"`
	Monitoring     string    `json:"monitoring"`
	ScraperService string    `json:"scraper_service"`
	PromptSummary  string    `json:"prompt_summary"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToAPI converts the row to its API shape
func (s *ScheduledScraper) ToAPI() types.ScheduledJob {
	return types.ScheduledJob{
		ID:             s.ID,
		UserID:         s.UserID,
		Name:           s.Name,
		Criteria:       s.Criteria,
		Regularity:     s.Regularity,
		DayNumber:      s.DayNumber,
		TimeUTC:        s.TimeUTC,
		Monitoring:     s.Monitoring,
		ScraperService: s.ScraperService,
		PromptSummary:  s.PromptSummary,
		CreatedAt:      s.CreatedAt,
	}
}
