// Package session holds the per-session aggregate: the active mode, one
// transcript per mode, the scrape-job draft and the cached job list.
//
// Every mutation runs under the session's mutex. Backend calls run with the
// mutex released so a slow collaborator never blocks reads, and their results
// are appended after re-acquiring it.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cojournalist/internal/logging"
	"github.com/jonathan/cojournalist/internal/metrics"
	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/spaces"
	"github.com/jonathan/cojournalist/internal/types"
	"go.uber.org/zap"
)

// Completer answers a question locally.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, question string) (string, error)
}

// SpaceClient queries a hosted Space.
type SpaceClient interface {
	Query(ctx context.Context, spaceURL, question, systemPrompt string) (*spaces.Reply, error)
}

// PromptSource supplies per-mode system prompts. It never fails.
type PromptSource interface {
	SystemPrompt(m modes.Mode) string
}

// Gateway is the persistence surface a session uses.
type Gateway interface {
	ResolveOwnerID(ctx context.Context, identity *types.Identity) (uuid.UUID, bool)
	CreateJob(ctx context.Context, in *types.NewScheduledJob) (*types.ScheduledJob, bool)
	ListJobs(ctx context.Context, owner uuid.UUID) []types.ScheduledJob
	DeleteJob(ctx context.Context, id, owner uuid.UUID) bool
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Registry  *modes.Registry
	Prompts   PromptSource
	Completer Completer
	Spaces    SpaceClient
	Gateway   Gateway
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Observer is called after each message appended by a submission.
type Observer func(mode modes.Mode, msg types.Message)

// Session is one user's interactive state.
type Session struct {
	id       string
	identity types.Identity
	deps     *Deps
	logger   *zap.Logger

	mu          sync.Mutex
	mode        modes.Mode
	transcripts map[modes.Mode][]types.Message
	input       string
	busy        bool
	scrape      *types.ScrapeResult
	draft       types.JobDraft
	jobs        []types.ScheduledJob
	lastActive  time.Time
}

// New creates a session in SCRAPE mode with empty transcripts and the
// default draft.
func New(id string, identity types.Identity, deps *Deps) *Session {
	transcripts := make(map[modes.Mode][]types.Message)
	for _, m := range modes.All() {
		transcripts[m] = []types.Message{}
	}
	return &Session{
		id:          id,
		identity:    identity,
		deps:        deps,
		logger:      logging.OrNop(deps.Logger).With(zap.String("session_id", id)),
		mode:        modes.Scrape,
		transcripts: transcripts,
		draft:       types.DefaultJobDraft(),
		jobs:        []types.ScheduledJob{},
		lastActive:  time.Now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Identity returns the identity owning the session.
func (s *Session) Identity() types.Identity {
	return s.identity
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	ID            string                         `json:"id"`
	Mode          modes.Mode                     `json:"mode"`
	Transcripts   map[modes.Mode][]types.Message `json:"transcripts"`
	Input         string                         `json:"input"`
	Busy          bool                           `json:"busy"`
	InputDisabled bool                           `json:"input_disabled"`
	ScrapeResult  *types.ScrapeResult            `json:"scrape_result"`
	Draft         types.JobDraft                 `json:"draft"`
	Jobs          []types.ScheduledJob           `json:"jobs"`
}

// Transcript returns the messages of the active mode.
func (s Snapshot) Transcript() []types.Message {
	return s.Transcripts[s.Mode]
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcripts := make(map[modes.Mode][]types.Message, len(s.transcripts))
	for m, msgs := range s.transcripts {
		transcripts[m] = append([]types.Message{}, msgs...)
	}
	var scrape *types.ScrapeResult
	if s.scrape != nil {
		cp := *s.scrape
		scrape = &cp
	}
	return Snapshot{
		ID:            s.id,
		Mode:          s.mode,
		Transcripts:   transcripts,
		Input:         s.input,
		Busy:          s.busy,
		InputDisabled: s.inputDisabledLocked(),
		ScrapeResult:  scrape,
		Draft:         s.draft,
		Jobs:          append([]types.ScheduledJob{}, s.jobs...),
	}
}

// InputDisabled reports whether the chat input is disabled: while busy, or
// in SCRAPE mode until a scrape result exists.
func (s *Session) InputDisabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputDisabledLocked()
}

func (s *Session) inputDisabledLocked() bool {
	return s.busy || (s.mode == modes.Scrape && s.scrape == nil)
}

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// LastActive returns the time of the latest access.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Touch records an access at now.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) appendLocked(m modes.Mode, msg types.Message) {
	s.transcripts[m] = append(s.transcripts[m], msg)
}
