package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Regularity values of the structured recurrence.
const (
	RegularityWeekly  = "weekly"
	RegularityMonthly = "monthly"
)

// Notification channels for a scrape job.
const (
	ChannelEmail   = "EMAIL"
	ChannelSMS     = "SMS"
	ChannelWebhook = "WEBHOOK"
)

// JobDraft is the mutable scrape-job form state of a session.
type JobDraft struct {
	URL        string `json:"url"`
	Criteria   string `json:"criteria"`
	Regularity string `json:"regularity"`
	DayNumber  string `json:"day_number"`
	TimeUTC    string `json:"time_utc"`
	Monitoring string `json:"monitoring"`

	// Schedule is the free-text recurrence of the old form.
	//
	// Deprecated: accepted and echoed back, never persisted. Use Regularity,
	// DayNumber and TimeUTC.
	Schedule string `json:"schedule,omitempty"`
}

// DefaultJobDraft returns the draft a new session starts with.
func DefaultJobDraft() JobDraft {
	return JobDraft{
		Regularity: RegularityWeekly,
		Monitoring: ChannelEmail,
	}
}

// UpdateDraftRequest carries partial draft updates; nil fields are left alone.
// Enumerated fields are checked here, at the boundary.
type UpdateDraftRequest struct {
	URL        *string `json:"url,omitempty"`
	Criteria   *string `json:"criteria,omitempty"`
	Regularity *string `json:"regularity,omitempty" validate:"omitempty,oneof=weekly monthly"`
	DayNumber  *string `json:"day_number,omitempty"`
	TimeUTC    *string `json:"time_utc,omitempty"`
	Monitoring *string `json:"monitoring,omitempty" validate:"omitempty,oneof=EMAIL SMS WEBHOOK"`
	Schedule   *string `json:"schedule,omitempty"`
}

// Validate validates the UpdateDraftRequest using the validator.
func (r *UpdateDraftRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Apply assigns every non-nil field of r onto d.
func (r *UpdateDraftRequest) Apply(d *JobDraft) {
	if r.URL != nil {
		d.URL = *r.URL
	}
	if r.Criteria != nil {
		d.Criteria = *r.Criteria
	}
	if r.Regularity != nil {
		d.Regularity = *r.Regularity
	}
	if r.DayNumber != nil {
		d.DayNumber = *r.DayNumber
	}
	if r.TimeUTC != nil {
		d.TimeUTC = *r.TimeUTC
	}
	if r.Monitoring != nil {
		d.Monitoring = *r.Monitoring
	}
	if r.Schedule != nil {
		d.Schedule = *r.Schedule
	}
}

// ScheduledJob is a persisted scrape job as returned to clients.
type ScheduledJob struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Name           string     `json:"name"`
	Criteria       string     `json:"criteria"`
	Regularity     string     `json:"regularity"`
	DayNumber      int        `json:"day_number"`
	TimeUTC        string     `json:"time_utc"`
	Monitoring     string     `json:"monitoring"`
	ScraperService string     `json:"scraper_service"`
	PromptSummary  string     `json:"prompt_summary"`
	CreatedAt      time.Time  `json:"created_at"`
	NextRunAt      *time.Time `json:"next_run_at,omitempty"`
}

// NewScheduledJob is the insert shape of a scrape job.
type NewScheduledJob struct {
	UserID         uuid.UUID
	Name           string
	Criteria       string
	Regularity     string
	DayNumber      int
	TimeUTC        string
	Monitoring     string
	ScraperService string
	PromptSummary  string
}
