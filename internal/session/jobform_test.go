package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftPatch(url, criteria, regularity, day, clock string) *types.UpdateDraftRequest {
	return &types.UpdateDraftRequest{
		URL:        &url,
		Criteria:   &criteria,
		Regularity: &regularity,
		DayNumber:  &day,
		TimeUTC:    &clock,
	}
}

func TestUpdateDraft_IsPureAssignment(t *testing.T) {
	s := newHarness(t).newSession()

	d := s.UpdateDraft(&types.UpdateDraftRequest{DayNumber: strPtr("not a number")})
	assert.Equal(t, "not a number", d.DayNumber)
	assert.Equal(t, types.RegularityWeekly, d.Regularity)

	d = s.UpdateDraft(&types.UpdateDraftRequest{Schedule: strPtr("first monday")})
	assert.Equal(t, "first monday", d.Schedule)
	assert.Equal(t, "not a number", s.Draft().DayNumber)
}

func TestSubmitJob_EmptyURLIsNoop(t *testing.T) {
	h := newHarness(t).withOwner()
	s := h.newSession()
	s.scrape = &types.ScrapeResult{Success: true, Title: "previous"}
	s.transcripts[modes.Scrape] = []types.Message{types.AssistantMessage("old", "", "")}
	s.UpdateDraft(&types.UpdateDraftRequest{URL: strPtr("   "), Criteria: strPtr("x")})
	before := s.Snapshot()
	callsBefore := h.store.Calls()

	require.NoError(t, s.SubmitJob(context.Background(), nil))

	after := s.Snapshot()
	assert.Equal(t, callsBefore, h.store.Calls(), "no gateway call")
	assert.Equal(t, before.Transcripts, after.Transcripts)
	assert.Equal(t, before.ScrapeResult, after.ScrapeResult)
	assert.False(t, after.Busy)
}

func TestSubmitJob_NormalizesBeforePersistence(t *testing.T) {
	h := newHarness(t).withOwner()
	s := h.newSession()
	s.UpdateDraft(draftPatch("https://example.com", "", "weekly", "", "09:30"))

	require.NoError(t, s.SubmitJob(context.Background(), nil))

	rows := h.store.Jobs()
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "https://example.com", row.Name)
	assert.Equal(t, "Monitor for changes", row.Criteria)
	assert.Equal(t, "weekly", row.Regularity)
	assert.Equal(t, 1, row.DayNumber)
	assert.Equal(t, "09:30:00", row.TimeUTC)
	assert.Equal(t, types.ChannelEmail, row.Monitoring)
	assert.Equal(t, "default", row.ScraperService)
	assert.Equal(t, "Scrape https://example.com", row.PromptSummary)

	snap := s.Snapshot()
	require.NotNil(t, snap.ScrapeResult)
	assert.True(t, snap.ScrapeResult.Success)
	assert.Equal(t, "Scrape Planned for https://example.com", snap.ScrapeResult.Title)
	assert.Equal(t, ScrapePreview, snap.ScrapeResult.Preview)
	assert.Equal(t, "https://example.com", snap.ScrapeResult.URL)
	assert.False(t, snap.Busy)

	transcript := snap.Transcripts[modes.Scrape]
	require.Len(t, transcript, 2)
	assert.Equal(t, "Scrape Planned for https://example.com", transcript[0].Content)
	require.NotNil(t, transcript[0].Image)
	assert.Equal(t, ScrapePreviewImage, *transcript[0].Image)
	require.NotNil(t, transcript[0].Source)
	assert.Equal(t, "https://example.com", *transcript[0].Source)
	assert.Equal(t, ScrapeConfirmation, transcript[1].Content)
	assert.Nil(t, transcript[1].Source)

	require.Len(t, snap.Jobs, 1, "job cache refreshed after insert")
	assert.False(t, snap.InputDisabled, "SCRAPE chat unlocked")
}

func TestSubmitJob_ClearsPreviousScrapeState(t *testing.T) {
	h := newHarness(t).withOwner()
	s := h.newSession()
	s.UpdateDraft(draftPatch("https://example.com/a", "", "", "", ""))
	require.NoError(t, s.SubmitJob(context.Background(), nil))
	s.scrape = &types.ScrapeResult{Success: true}
	require.NoError(t, s.Submit(context.Background(), "follow-up", nil))
	require.Len(t, s.Snapshot().Transcripts[modes.Scrape], 4)

	s.UpdateDraft(&types.UpdateDraftRequest{URL: strPtr("https://example.com/b")})
	require.NoError(t, s.SubmitJob(context.Background(), nil))

	snap := s.Snapshot()
	require.Len(t, snap.Transcripts[modes.Scrape], 2)
	assert.Equal(t, "Scrape Planned for https://example.com/b", snap.Transcripts[modes.Scrape][0].Content)
	assert.Equal(t, "https://example.com/b", snap.ScrapeResult.URL)
}

func TestSubmitJob_WithoutOwnerSkipsPersistence(t *testing.T) {
	h := newHarness(t)
	s := h.newSession()
	s.UpdateDraft(draftPatch("https://example.com", "", "weekly", "", "09:30"))

	require.NoError(t, s.SubmitJob(context.Background(), nil))

	assert.Empty(t, h.store.Jobs())
	assert.Equal(t, 0, h.store.CreateCalls)
	snap := s.Snapshot()
	assert.Len(t, snap.Transcripts[modes.Scrape], 2)
	require.NotNil(t, snap.ScrapeResult)
	assert.False(t, snap.Busy)
}

func TestSubmitJob_InvalidDayNumberSkipsPersistence(t *testing.T) {
	h := newHarness(t).withOwner()
	s := h.newSession()
	s.UpdateDraft(draftPatch("https://example.com", "", "weekly", "tuesday", "09:30"))

	require.NoError(t, s.SubmitJob(context.Background(), nil))

	assert.Equal(t, 0, h.store.CreateCalls)
	assert.Equal(t, 1, h.logs.FilterMessage("scrape job not saved").Len())
	assert.Len(t, s.Snapshot().Transcripts[modes.Scrape], 2, "flow continues")
}

func TestSubmitJob_InsertFailureIsSwallowed(t *testing.T) {
	h := newHarness(t).withOwner()
	h.store.CreateErr = errors.New("unique violation")
	s := h.newSession()
	s.UpdateDraft(draftPatch("https://example.com", "", "", "", ""))

	require.NoError(t, s.SubmitJob(context.Background(), nil))

	assert.Equal(t, 1, h.store.CreateCalls)
	assert.Equal(t, 1, h.logs.FilterMessage("persistence operation failed").Len())
	snap := s.Snapshot()
	require.Len(t, snap.Transcripts[modes.Scrape], 2)
	assert.Equal(t, ScrapeConfirmation, snap.Transcripts[modes.Scrape][1].Content)
	assert.False(t, snap.Busy)
}

func TestSubmitJob_NonAbsoluteURL(t *testing.T) {
	h := newHarness(t)
	s := h.newSession()
	s.UpdateDraft(&types.UpdateDraftRequest{URL: strPtr("example.com/news")})

	require.NoError(t, s.SubmitJob(context.Background(), nil))

	snap := s.Snapshot()
	require.Len(t, snap.Transcripts[modes.Scrape], 1)
	msg := snap.Transcripts[modes.Scrape][0]
	assert.Contains(t, msg.Content, "Failed to create scrape job. Error: ")
	require.NotNil(t, msg.Source)
	assert.Equal(t, types.SourceSystemError, *msg.Source)
	assert.Nil(t, snap.ScrapeResult)
	assert.False(t, snap.Busy)
}

func TestSubmitJob_RejectedWhileBusy(t *testing.T) {
	h := newHarness(t)
	h.spaces.started = make(chan struct{}, 1)
	h.spaces.release = make(chan struct{})
	s := h.newSession()
	require.NoError(t, s.SwitchMode(modes.Data))
	s.UpdateDraft(&types.UpdateDraftRequest{URL: strPtr("https://example.com")})

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background(), "q", nil) }()
	<-h.spaces.started

	assert.ErrorIs(t, s.SubmitJob(context.Background(), nil), ErrBusy)
	close(h.spaces.release)
	require.NoError(t, <-done)
	assert.Empty(t, s.Snapshot().Transcripts[modes.Scrape])
}

func TestRefreshAndDeleteJobs(t *testing.T) {
	h := newHarness(t).withOwner()
	s := h.newSession()
	for _, u := range []string{"https://example.com/1", "https://example.com/2"} {
		s.UpdateDraft(&types.UpdateDraftRequest{URL: &u})
		require.NoError(t, s.SubmitJob(context.Background(), nil))
	}

	jobs := s.RefreshJobs(context.Background())
	require.Len(t, jobs, 2)
	assert.Equal(t, "https://example.com/2", jobs[0].Name, "newest first")
	require.NotNil(t, jobs[0].NextRunAt)
	assert.True(t, jobs[0].NextRunAt.After(time.Now().Add(-time.Minute)))

	deleted, jobs := s.DeleteJob(context.Background(), jobs[1].ID)
	assert.True(t, deleted)
	require.Len(t, jobs, 1)
	assert.Equal(t, "https://example.com/2", jobs[0].Name)
	assert.Equal(t, jobs, s.Jobs())
}

func TestRefreshJobs_WithoutOwner(t *testing.T) {
	h := newHarness(t)
	s := h.newSession()

	assert.Empty(t, s.RefreshJobs(context.Background()))
	deleted, jobs := s.DeleteJob(context.Background(), uuid.New())
	assert.False(t, deleted)
	assert.Empty(t, jobs)
	assert.Equal(t, 0, h.store.DeleteCalls)
}

func TestSubmitJob_Observer(t *testing.T) {
	h := newHarness(t)
	s := h.newSession()
	s.UpdateDraft(&types.UpdateDraftRequest{URL: strPtr("https://example.com")})

	var seen []types.Message
	require.NoError(t, s.SubmitJob(context.Background(), func(m modes.Mode, msg types.Message) {
		assert.Equal(t, modes.Scrape, m)
		seen = append(seen, msg)
	}))
	assert.Len(t, seen, 2)
}
