package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/server/middleware"
	"github.com/jonathan/cojournalist/internal/session"
	"github.com/jonathan/cojournalist/internal/types"
	"go.uber.org/zap"
)

// sessionFor returns the caller's session named by the {id} path value,
// writing the error response when there is none.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	caller, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	sess, err := s.sessions.Get(r.PathValue("id"), caller)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return sess, true
}

// handleCreateSession starts a session for the caller. The user record is
// created on first sight; failures leave the session without an owner.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	s.users.EnsureUser(r.Context(), caller.ExternalID, caller.Email)
	sess := s.sessions.Create(caller)
	sess.RefreshJobs(r.Context())
	s.jsonResponse(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	var req types.SetModeRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	mode, err := modes.Parse(req.Mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.SwitchMode(mode); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSetInput(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	var req types.SetInputRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	sess.SetInput(req.Input)
	s.jsonResponse(w, http.StatusOK, sess.Snapshot())
}

// handleChat submits a question and answers with the updated session once
// the backend has replied.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	var req types.SubmitChatRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.Submit(r.Context(), req.Question, nil); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess.Snapshot())
}

// handleChatStream submits a question and streams the user message and the
// reply as they are appended, then the final snapshot.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	var req types.SubmitChatRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	stream, err := newChatStream(w, sess.ID())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	obs := func(mode modes.Mode, msg types.Message) {
		if err := stream.Message(mode, msg); err != nil {
			s.logger.Debug("stream write failed", zap.String("session_id", sess.ID()), zap.Error(err))
		}
	}
	if err := sess.Submit(r.Context(), req.Question, obs); err != nil {
		stream.Fail(err)
		return
	}
	stream.Complete(sess.Snapshot())
}

func (s *Server) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	var req types.UpdateDraftRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"draft": sess.UpdateDraft(&req)})
}

// handleSubmitScrape submits the session's draft as a scrape job.
func (s *Server) handleSubmitScrape(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	if err := sess.SubmitJob(r.Context(), nil); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": sess.RefreshJobs(r.Context())})
}

// handleDeleteJob deletes one of the owner's jobs and returns the re-fetched
// list. Deleting a missing or foreign job reports deleted=false.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	jobID, err := uuid.Parse(r.PathValue("job_id"))
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "job_id", Message: "uuid"})
		return
	}
	deleted, jobs := sess.DeleteJob(r.Context(), jobID)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"deleted": deleted,
		"jobs":    jobs,
	})
}
