package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/cojournalist/internal/metrics"
	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/schedule"
	"github.com/jonathan/cojournalist/internal/types"
	"go.uber.org/zap"
)

// Texts of the messages added by a job submission.
const (
	ScrapePreview      = "This scrape has been saved to your active jobs."
	ScrapeConfirmation = "Scrape job saved. You can view it in the 'Active Jobs' tab. You can now use the chat to proceed."
	ScrapePreviewImage = "https://images.unsplash.com/photo-1504711434969-e33886168f5c?q=80&w=2070&auto=format&fit=crop&ixlib=rb-4.0.3&ixid=M3wxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8fA%3D%3D"
)

// DefaultScraperService is stored on every job row.
const DefaultScraperService = "default"

// Draft returns the current job draft.
func (s *Session) Draft() types.JobDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// UpdateDraft assigns every field present in patch. Values are not checked
// here; normalization happens on submit.
func (s *Session) UpdateDraft(patch *types.UpdateDraftRequest) types.JobDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch.Apply(&s.draft)
	return s.draft
}

// SubmitJob saves the draft as a scheduled job and reports the result in the
// SCRAPE transcript. An empty URL is ignored without touching any state.
//
// Persistence is skipped, with the rest of the flow unchanged, when the
// session's identity has no user record or the draft fails normalization.
// Insert failures are logged by the gateway and otherwise ignored.
func (s *Session) SubmitJob(ctx context.Context, obs Observer) error {
	s.mu.Lock()
	draft := s.draft
	if strings.TrimSpace(draft.URL) == "" {
		s.mu.Unlock()
		return nil
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.scrape = nil
	s.transcripts[modes.Scrape] = []types.Message{}
	s.mu.Unlock()

	target := strings.TrimSpace(draft.URL)
	outcome := s.persistJob(ctx, target, draft)
	s.deps.Metrics.ObserveScrapeJob(outcome)

	result, err := buildScrapeResult(target)

	var added []types.Message
	s.mu.Lock()
	if err != nil {
		s.logger.Error("failed to create scrape job", zap.String("url", target), zap.Error(err))
		added = append(added, types.AssistantMessage(
			fmt.Sprintf("Failed to create scrape job. Error: %s", err),
			"",
			types.SourceSystemError,
		))
	} else {
		s.scrape = result
		added = append(added,
			types.AssistantMessage(result.Title, ScrapePreviewImage, result.URL),
			types.AssistantMessage(ScrapeConfirmation, "", ""),
		)
	}
	for _, msg := range added {
		s.appendLocked(modes.Scrape, msg)
	}
	s.busy = false
	s.mu.Unlock()

	if obs != nil {
		for _, msg := range added {
			obs(modes.Scrape, msg)
		}
	}
	return nil
}

// persistJob inserts the job when an owner is known and returns the metrics outcome.
func (s *Session) persistJob(ctx context.Context, target string, draft types.JobDraft) string {
	owner, ok := s.deps.Gateway.ResolveOwnerID(ctx, &s.identity)
	if !ok {
		s.logger.Warn("no owner for scrape job, not saving", zap.String("url", target))
		return metrics.OutcomeSkipped
	}

	rec, criteria, err := schedule.Normalize(draft)
	if err != nil {
		s.logger.Warn("scrape job not saved", zap.String("url", target), zap.Error(err))
		return metrics.OutcomeSkipped
	}

	job, ok := s.deps.Gateway.CreateJob(ctx, &types.NewScheduledJob{
		UserID:         owner,
		Name:           target,
		Criteria:       criteria,
		Regularity:     rec.Regularity,
		DayNumber:      rec.DayNumber,
		TimeUTC:        rec.TimeUTC,
		Monitoring:     draft.Monitoring,
		ScraperService: DefaultScraperService,
		PromptSummary:  "Scrape " + target,
	})
	if !ok {
		return metrics.OutcomeError
	}

	s.logger.Info("scrape job saved", zap.String("job_id", job.ID.String()), zap.String("url", target))
	s.storeJobs(s.deps.Gateway.ListJobs(ctx, owner))
	return metrics.OutcomeOK
}

func buildScrapeResult(target string) (*types.ScrapeResult, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", target)
	}
	return &types.ScrapeResult{
		Success: true,
		Title:   "Scrape Planned for " + target,
		Preview: ScrapePreview,
		URL:     target,
	}, nil
}

// Jobs returns the cached job list.
func (s *Session) Jobs() []types.ScheduledJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ScheduledJob{}, s.jobs...)
}

func (s *Session) storeJobs(jobs []types.ScheduledJob) {
	s.mu.Lock()
	s.jobs = jobs
	s.mu.Unlock()
}

// RefreshJobs reloads the owner's jobs into the cache and returns them.
// Without an owner the list is empty.
func (s *Session) RefreshJobs(ctx context.Context) []types.ScheduledJob {
	owner, ok := s.deps.Gateway.ResolveOwnerID(ctx, &s.identity)
	if !ok {
		owner = uuid.Nil
	}
	jobs := s.deps.Gateway.ListJobs(ctx, owner)
	s.storeJobs(jobs)
	return append([]types.ScheduledJob{}, jobs...)
}

// DeleteJob deletes one of the owner's jobs, then reloads the list. Reports
// whether a row was removed.
func (s *Session) DeleteJob(ctx context.Context, id uuid.UUID) (bool, []types.ScheduledJob) {
	owner, ok := s.deps.Gateway.ResolveOwnerID(ctx, &s.identity)
	deleted := false
	if ok {
		deleted = s.deps.Gateway.DeleteJob(ctx, id, owner)
	} else {
		owner = uuid.Nil
	}
	jobs := s.deps.Gateway.ListJobs(ctx, owner)
	s.storeJobs(jobs)
	return deleted, append([]types.ScheduledJob{}, jobs...)
}
