package session

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/spaces"
	"github.com/jonathan/cojournalist/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InitialState(t *testing.T) {
	s := newHarness(t).newSession()
	snap := s.Snapshot()

	assert.Equal(t, modes.Scrape, snap.Mode)
	assert.Len(t, snap.Transcripts, len(modes.All()))
	for _, m := range modes.All() {
		assert.Empty(t, snap.Transcripts[m], m)
	}
	assert.Equal(t, types.DefaultJobDraft(), snap.Draft)
	assert.Nil(t, snap.ScrapeResult)
	assert.True(t, snap.InputDisabled, "SCRAPE input starts locked")
}

func TestSwitchMode_WelcomeOnFirstActivation(t *testing.T) {
	for _, m := range modes.All() {
		t.Run(string(m), func(t *testing.T) {
			s := newHarness(t).newSession()
			require.NoError(t, s.SwitchMode(m))
			require.NoError(t, s.SwitchMode(m))

			transcript := s.Snapshot().Transcripts[m]
			if m == modes.Scrape {
				assert.Empty(t, transcript)
				return
			}
			require.Len(t, transcript, 1)
			assert.Equal(t, WelcomeMessage(m), transcript[0])
			assert.Equal(t, "Welcome to "+string(m)+" mode. Ask a question to get started.", transcript[0].Content)
			require.NotNil(t, transcript[0].Source)
			assert.Equal(t, types.SourceSystem, *transcript[0].Source)
		})
	}
}

func TestSwitchMode_NoWelcomeWhenTranscriptHasMessages(t *testing.T) {
	s := newHarness(t).newSession()
	require.NoError(t, s.SwitchMode(modes.Data))
	require.NoError(t, s.SwitchMode(modes.Investigate))
	require.NoError(t, s.SwitchMode(modes.Data))

	assert.Len(t, s.Snapshot().Transcripts[modes.Data], 1)
}

func TestSwitchMode_RejectsUnknownMode(t *testing.T) {
	s := newHarness(t).newSession()
	err := s.SwitchMode(modes.Mode("WEATHER"))

	var unknown *modes.ErrUnknownMode
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, modes.Scrape, s.Snapshot().Mode)
}

func TestSubmit_EmptyQuestionIsNoop(t *testing.T) {
	h := newHarness(t)
	s := h.newSession()
	require.NoError(t, s.SwitchMode(modes.Data))
	s.SetInput("   ")
	before := s.Snapshot()

	for _, q := range []string{"", "   ", "\n\t"} {
		require.NoError(t, s.Submit(context.Background(), q, nil))
	}

	after := s.Snapshot()
	assert.Equal(t, before.Transcripts, after.Transcripts)
	assert.False(t, after.Busy)
	assert.Equal(t, "   ", after.Input)
	assert.Equal(t, 0, h.spaces.Calls())
}

func TestSubmit_ExactlyOneAssistantMessage(t *testing.T) {
	text := "Here is the data"
	tests := []struct {
		name       string
		mode       modes.Mode
		setup      func(h *harness)
		wantText   string
		wantSource *string
		wantImage  *string
	}{
		{
			name:     "local success",
			mode:     modes.Scrape,
			wantText: "A local answer",
		},
		{
			name:       "local failure",
			mode:       modes.Scrape,
			setup:      func(h *harness) { h.completer.err = errors.New("rate limited") },
			wantText:   LocalFailureReply,
			wantSource: strPtr(types.SourceError),
		},
		{
			name:     "local without backend",
			mode:     modes.Scrape,
			setup:    func(h *harness) { h.deps.Completer = nil },
			wantText: LocalFailureReply, wantSource: strPtr(types.SourceError),
		},
		{
			name: "remote success",
			mode: modes.Data,
			setup: func(h *harness) {
				h.spaces.reply = &spaces.Reply{GeneratedText: &text, ImageURL: "https://img/x.png", SourceURL: "https://src"}
			},
			wantText:   "Here is the data",
			wantImage:  strPtr("https://img/x.png"),
			wantSource: strPtr("https://src"),
		},
		{
			name:     "remote without text",
			mode:     modes.Graphics,
			setup:    func(h *harness) { h.spaces.reply = &spaces.Reply{} },
			wantText: spaces.NoTextReply,
		},
		{
			name:       "remote invalid space",
			mode:       modes.FactCheck,
			setup:      func(h *harness) { h.spaces.err = spaces.ErrNoSpace },
			wantText:   NoSpaceReply,
			wantSource: strPtr(types.SourceSystemError),
		},
		{
			name:       "remote transport failure",
			mode:       modes.Investigate,
			setup:      func(h *harness) { h.spaces.err = &spaces.Error{Message: "request failed"} },
			wantText:   SpaceFailureReply,
			wantSource: strPtr(types.SourceAPIError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}
			s := h.newSession()
			if tt.mode == modes.Scrape {
				s.scrape = &types.ScrapeResult{Success: true}
			}
			require.NoError(t, s.SwitchMode(tt.mode))
			s.SetInput("what changed?")
			before := len(s.Snapshot().Transcripts[tt.mode])

			require.NoError(t, s.Submit(context.Background(), "  what changed?  ", nil))

			snap := s.Snapshot()
			transcript := snap.Transcripts[tt.mode]
			require.Len(t, transcript, before+2)
			assert.Equal(t, types.UserMessage("what changed?"), transcript[before])

			reply := transcript[before+1]
			assert.Equal(t, types.RoleAssistant, reply.Role)
			assert.Equal(t, tt.wantText, reply.Content)
			assert.Equal(t, tt.wantSource, reply.Source)
			assert.Equal(t, tt.wantImage, reply.Image)
			assert.False(t, snap.Busy)
			assert.Empty(t, snap.Input, "input echo is cleared")
		})
	}
}

func TestSubmit_UsesModePromptAndRoute(t *testing.T) {
	h := newHarness(t)
	s := h.newSession()
	s.scrape = &types.ScrapeResult{Success: true}

	require.NoError(t, s.Submit(context.Background(), "hello", nil))
	assert.Equal(t, "prompt for SCRAPE", h.completer.prompt)
	assert.Equal(t, 0, h.spaces.Calls())

	require.NoError(t, s.SwitchMode(modes.Investigate))
	require.NoError(t, s.Submit(context.Background(), "hello", nil))
	assert.Equal(t, modes.DefaultSpaceURLs[modes.Investigate], h.spaces.gotURL)
	assert.Equal(t, 1, h.completer.Calls())
}

func TestSubmit_BackendErrorIsLogged(t *testing.T) {
	h := newHarness(t)
	h.spaces.err = &spaces.Error{URL: "https://x", Message: "HTTP 502", StatusCode: 502}
	s := h.newSession()
	require.NoError(t, s.SwitchMode(modes.Data))

	require.NoError(t, s.Submit(context.Background(), "q", nil))

	entries := h.logs.FilterMessage("chat backend failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "DATA", entries[0].ContextMap()["mode"])
	assert.Contains(t, entries[0].ContextMap()["error"], "HTTP 502")
	// The raw error never reaches the transcript.
	for _, msg := range s.Snapshot().Transcripts[modes.Data] {
		assert.NotContains(t, msg.Content, "502")
	}
}

func TestSubmit_ScrapeLockedUntilResult(t *testing.T) {
	h := newHarness(t)
	s := h.newSession()

	err := s.Submit(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrInputLocked)
	assert.Empty(t, s.Snapshot().Transcripts[modes.Scrape])
	assert.Equal(t, 0, h.completer.Calls())
}

func TestInputDisabled(t *testing.T) {
	tests := []struct {
		mode     modes.Mode
		busy     bool
		scraped  bool
		disabled bool
	}{
		{modes.Scrape, false, false, true},
		{modes.Scrape, false, true, false},
		{modes.Scrape, true, true, true},
		{modes.Data, false, false, false},
		{modes.Data, true, false, true},
		{modes.Graphics, false, true, false},
	}

	for _, tt := range tests {
		s := newHarness(t).newSession()
		require.NoError(t, s.SwitchMode(tt.mode))
		s.busy = tt.busy
		if tt.scraped {
			s.scrape = &types.ScrapeResult{Success: true}
		}
		assert.Equal(t, tt.disabled, s.InputDisabled(), "%+v", tt)
		assert.Equal(t, tt.disabled, s.Snapshot().InputDisabled, "%+v", tt)
	}
}

func TestSubmit_BusyRejectsOverlap(t *testing.T) {
	h := newHarness(t)
	h.spaces.started = make(chan struct{}, 1)
	h.spaces.release = make(chan struct{})
	s := h.newSession()
	require.NoError(t, s.SwitchMode(modes.Data))

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background(), "first", nil) }()
	<-h.spaces.started

	assert.True(t, s.Busy())
	assert.True(t, s.InputDisabled())
	assert.ErrorIs(t, s.Submit(context.Background(), "second", nil), ErrBusy)

	// Reads do not wait for the backend.
	transcript := s.Snapshot().Transcripts[modes.Data]
	require.Len(t, transcript, 2)
	assert.Equal(t, "first", transcript[1].Content, "user message is appended before dispatch")

	close(h.spaces.release)
	require.NoError(t, <-done)

	transcript = s.Snapshot().Transcripts[modes.Data]
	require.Len(t, transcript, 3)
	assert.Equal(t, types.RoleAssistant, transcript[2].Role)
	assert.False(t, s.Busy())
}

func TestSubmit_ReplyGoesToModeActiveAtSubmit(t *testing.T) {
	h := newHarness(t)
	h.spaces.started = make(chan struct{}, 1)
	h.spaces.release = make(chan struct{})
	s := h.newSession()
	require.NoError(t, s.SwitchMode(modes.Data))

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background(), "question", nil) }()
	<-h.spaces.started

	require.NoError(t, s.SwitchMode(modes.Investigate))
	close(h.spaces.release)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	assert.Equal(t, modes.Investigate, snap.Mode)
	assert.Len(t, snap.Transcripts[modes.Data], 3)
	assert.Len(t, snap.Transcripts[modes.Investigate], 1, "only the welcome message")
}

func TestSubmit_Observer(t *testing.T) {
	h := newHarness(t)
	s := h.newSession()
	require.NoError(t, s.SwitchMode(modes.Data))

	var seen []types.Message
	require.NoError(t, s.Submit(context.Background(), "q", func(m modes.Mode, msg types.Message) {
		assert.Equal(t, modes.Data, m)
		seen = append(seen, msg)
	}))

	require.Len(t, seen, 2)
	assert.Equal(t, types.RoleUser, seen[0].Role)
	assert.Equal(t, types.RoleAssistant, seen[1].Role)
}

func TestSessions_AreIsolated(t *testing.T) {
	h := newHarness(t)
	sessions := make([]*Session, 10)
	for i := range sessions {
		sessions[i] = New("s", h.identity, h.deps)
		require.NoError(t, sessions[i].SwitchMode(modes.Data))
	}

	done := make(chan struct{})
	for _, s := range sessions {
		go func(s *Session) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 5; i++ {
				assert.NoError(t, s.Submit(context.Background(), "q", nil))
			}
		}(s)
	}
	for range sessions {
		<-done
	}

	for _, s := range sessions {
		transcript := s.Snapshot().Transcripts[modes.Data]
		require.Len(t, transcript, 1+5*2)
		for i := 1; i < len(transcript); i += 2 {
			assert.Equal(t, types.RoleUser, transcript[i].Role)
			assert.Equal(t, types.RoleAssistant, transcript[i+1].Role)
		}
	}
}
