package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/cojournalist/internal/metrics"
	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/spaces"
	"github.com/jonathan/cojournalist/internal/types"
	"go.uber.org/zap"
)

// Reply texts shown when a backend fails. Raw errors are only logged.
const (
	LocalFailureReply = "Sorry, I couldn't process your request at the moment."
	NoSpaceReply      = "This mode does not have a valid Hugging Face Space API configured."
	SpaceFailureReply = "Failed to query the Hugging Face Space. Please try again later."
)

// Route labels for metrics.
const (
	routeLocal = "local"
	routeSpace = "space"
)

// WelcomeMessage returns the synthetic greeting of a mode.
func WelcomeMessage(m modes.Mode) types.Message {
	return types.AssistantMessage(
		fmt.Sprintf("Welcome to %s mode. Ask a question to get started.", m),
		"",
		types.SourceSystem,
	)
}

// SwitchMode activates m. The first activation of a mode other than SCRAPE
// adds its welcome message.
func (s *Session) SwitchMode(m modes.Mode) error {
	if !m.Valid() {
		return &modes.ErrUnknownMode{Value: string(m)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = m
	if m != modes.Scrape && len(s.transcripts[m]) == 0 {
		s.appendLocked(m, WelcomeMessage(m))
	}
	return nil
}

// SetInput stores the chat input echo.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// Submit sends a question to the backend of the active mode.
//
// An empty or whitespace-only question is ignored. Otherwise the user message
// is appended before dispatch and exactly one assistant message is appended
// afterwards, to the transcript of the mode that was active at submit time.
// obs may be nil.
func (s *Session) Submit(ctx context.Context, question string, obs Observer) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.mode == modes.Scrape && s.scrape == nil {
		s.mu.Unlock()
		return ErrInputLocked
	}
	mode := s.mode
	s.busy = true
	s.input = ""
	userMsg := types.UserMessage(question)
	s.appendLocked(mode, userMsg)
	s.mu.Unlock()

	if obs != nil {
		obs(mode, userMsg)
	}

	reply := s.dispatch(ctx, mode, question)

	s.mu.Lock()
	s.appendLocked(mode, reply)
	s.busy = false
	s.mu.Unlock()

	if obs != nil {
		obs(mode, reply)
	}
	return nil
}

func (s *Session) dispatch(ctx context.Context, mode modes.Mode, question string) types.Message {
	route := s.deps.Registry.Resolve(mode)
	systemPrompt := s.deps.Prompts.SystemPrompt(mode)

	start := time.Now()
	var (
		reply    types.Message
		err      error
		routeTag string
	)
	if route.Local {
		routeTag = routeLocal
		reply, err = s.completeLocal(ctx, systemPrompt, question)
	} else {
		routeTag = routeSpace
		reply, err = s.querySpace(ctx, route.ExternalURL, systemPrompt, question)
	}

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		s.logger.Error("chat backend failed",
			zap.String("mode", string(mode)),
			zap.String("route", routeTag),
			zap.Error(err),
		)
	}
	s.deps.Metrics.ObserveChat(string(mode), routeTag, outcome, time.Since(start).Seconds())
	return reply
}

func (s *Session) completeLocal(ctx context.Context, systemPrompt, question string) (types.Message, error) {
	if s.deps.Completer == nil {
		return types.AssistantMessage(LocalFailureReply, "", types.SourceError),
			errors.New("no completion backend configured")
	}
	text, err := s.deps.Completer.Complete(ctx, systemPrompt, question)
	if err != nil {
		return types.AssistantMessage(LocalFailureReply, "", types.SourceError), err
	}
	return types.AssistantMessage(text, "", ""), nil
}

func (s *Session) querySpace(ctx context.Context, spaceURL, systemPrompt, question string) (types.Message, error) {
	if s.deps.Spaces == nil {
		return types.AssistantMessage(NoSpaceReply, "", types.SourceSystemError), spaces.ErrNoSpace
	}
	reply, err := s.deps.Spaces.Query(ctx, spaceURL, question, systemPrompt)
	if errors.Is(err, spaces.ErrNoSpace) {
		return types.AssistantMessage(NoSpaceReply, "", types.SourceSystemError), err
	}
	if err != nil {
		return types.AssistantMessage(SpaceFailureReply, "", types.SourceAPIError), err
	}
	return types.AssistantMessage(reply.Content(), reply.ImageURL, reply.SourceURL), nil
}
