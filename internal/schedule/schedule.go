// Package schedule normalizes the structured recurrence of a scrape job and
// previews when the external workflow engine will next run it.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/cojournalist/internal/types"
	"github.com/robfig/cron/v3"
)

// Defaults applied to empty draft fields.
const (
	DefaultCriteria = "Monitor for changes"
	DefaultTimeUTC  = "12:00:00"
	DefaultDay      = 1
)

// Recurrence is the normalized, persistable schedule of a job.
type Recurrence struct {
	Regularity string
	DayNumber  int
	TimeUTC    string
}

// NormalizeError reports a draft field that cannot be persisted.
type NormalizeError struct {
	Field string
	Value string
	Err   error
}

func (e *NormalizeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *NormalizeError) Unwrap() error {
	return e.Err
}

// Normalize fills defaults into a draft and returns the recurrence and the
// criteria to persist. Times are returned as zero-padded HH:MM:SS; values
// without seconds get ":00".
func Normalize(d types.JobDraft) (Recurrence, string, error) {
	criteria := strings.TrimSpace(d.Criteria)
	if criteria == "" {
		criteria = DefaultCriteria
	}

	rec := Recurrence{
		Regularity: strings.ToLower(strings.TrimSpace(d.Regularity)),
		DayNumber:  DefaultDay,
		TimeUTC:    strings.TrimSpace(d.TimeUTC),
	}
	if rec.Regularity == "" {
		rec.Regularity = types.RegularityWeekly
	}
	if rec.Regularity != types.RegularityWeekly && rec.Regularity != types.RegularityMonthly {
		return Recurrence{}, "", &NormalizeError{Field: "regularity", Value: d.Regularity}
	}

	if day := strings.TrimSpace(d.DayNumber); day != "" {
		n, err := strconv.Atoi(day)
		if err != nil {
			return Recurrence{}, "", &NormalizeError{Field: "day number", Value: d.DayNumber, Err: err}
		}
		rec.DayNumber = n
	}
	if rec.DayNumber < 1 || rec.DayNumber > maxDay(rec.Regularity) {
		return Recurrence{}, "", &NormalizeError{
			Field: "day number",
			Value: d.DayNumber,
			Err:   fmt.Errorf("must be between 1 and %d for %s jobs", maxDay(rec.Regularity), rec.Regularity),
		}
	}

	switch {
	case rec.TimeUTC == "":
		rec.TimeUTC = DefaultTimeUTC
	case strings.Count(rec.TimeUTC, ":") == 1:
		rec.TimeUTC += ":00"
	}
	t, err := time.Parse(time.TimeOnly, rec.TimeUTC)
	if err != nil {
		return Recurrence{}, "", &NormalizeError{Field: "time", Value: d.TimeUTC, Err: err}
	}
	// Stored times are always zero-padded HH:MM:SS.
	rec.TimeUTC = t.Format(time.TimeOnly)

	return rec, criteria, nil
}

// Weekly day numbers run Monday=1 through Sunday=7.
func maxDay(regularity string) int {
	if regularity == types.RegularityMonthly {
		return 31
	}
	return 7
}

// CronSpec renders the recurrence as a five-field cron expression.
func (r Recurrence) CronSpec() (string, error) {
	t, err := time.Parse(time.TimeOnly, r.TimeUTC)
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", r.TimeUTC, err)
	}

	switch r.Regularity {
	case types.RegularityWeekly:
		return fmt.Sprintf("%d %d * * %d", t.Minute(), t.Hour(), r.DayNumber%7), nil
	case types.RegularityMonthly:
		return fmt.Sprintf("%d %d %d * *", t.Minute(), t.Hour(), r.DayNumber), nil
	default:
		return "", fmt.Errorf("unknown regularity %q", r.Regularity)
	}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun returns the first run strictly after the given instant, in UTC.
// Seconds of TimeUTC are ignored.
func (r Recurrence) NextRun(after time.Time) (time.Time, error) {
	spec, err := r.CronSpec()
	if err != nil {
		return time.Time{}, err
	}
	sched, err := parser.Parse("CRON_TZ=UTC " + spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	return sched.Next(after.UTC()), nil
}

// FromJob rebuilds the recurrence of a stored job.
func FromJob(job types.ScheduledJob) Recurrence {
	return Recurrence{
		Regularity: job.Regularity,
		DayNumber:  job.DayNumber,
		TimeUTC:    job.TimeUTC,
	}
}
