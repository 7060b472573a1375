package session

import (
	"context"
	"sync"
	"testing"

	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/persistence"
	"github.com/jonathan/cojournalist/internal/persistence/persistencetest"
	"github.com/jonathan/cojournalist/internal/spaces"
	"github.com/jonathan/cojournalist/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeCompleter struct {
	mu     sync.Mutex
	reply  string
	err    error
	calls  int
	prompt string
	// started and release, when set, park the call until release is closed.
	started chan struct{}
	release chan struct{}
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, question string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompt = systemPrompt
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	return f.reply, f.err
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSpaces struct {
	mu      sync.Mutex
	reply   *spaces.Reply
	err     error
	calls   int
	gotURL  string
	started chan struct{}
	release chan struct{}
}

func (f *fakeSpaces) Query(ctx context.Context, spaceURL, question, systemPrompt string) (*spaces.Reply, error) {
	f.mu.Lock()
	f.calls++
	f.gotURL = spaceURL
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	return f.reply, f.err
}

func (f *fakeSpaces) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePrompts struct{}

func (fakePrompts) SystemPrompt(m modes.Mode) string {
	return "prompt for " + string(m)
}

type harness struct {
	deps      *Deps
	completer *fakeCompleter
	spaces    *fakeSpaces
	store     *persistencetest.Store
	logs      *observer.ObservedLogs
	identity  types.Identity
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	store := persistencetest.NewStore()
	text := "A generated answer"
	h := &harness{
		completer: &fakeCompleter{reply: "A local answer"},
		spaces:    &fakeSpaces{reply: &spaces.Reply{GeneratedText: &text}},
		store:     store,
		logs:      logs,
		identity:  types.Identity{ExternalID: "ext-1", Email: "reporter@example.com"},
	}
	h.deps = &Deps{
		Registry: modes.NewRegistry(nil),
		Prompts:  fakePrompts{},
		Gateway:  persistence.NewGateway(store, logger, nil),
		Logger:   logger,
	}
	h.deps.Completer = h.completer
	h.deps.Spaces = h.spaces
	return h
}

func (h *harness) newSession() *Session {
	return New("sess-1", h.identity, h.deps)
}

// withOwner registers the harness identity as a known user.
func (h *harness) withOwner() *harness {
	h.store.AddUser(h.identity.ExternalID, h.identity.Email)
	return h
}

func strPtr(s string) *string { return &s }
