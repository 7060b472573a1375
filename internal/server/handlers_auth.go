package server

import (
	"net/http"

	"github.com/jonathan/cojournalist/internal/server/middleware"
	"github.com/jonathan/cojournalist/internal/types"
	"go.uber.org/zap"
)

// handleSignIn signs the caller in with the identity provider, registering
// the account when sign-in fails, and makes sure a user record exists.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if s.identity == nil {
		s.writeError(w, &ErrUnavailable{Service: "sign-in"})
		return
	}

	var req types.SignInRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	signedUp := false
	sess, err := s.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Info("sign-in failed, trying sign-up", zap.String("email", req.Email), zap.Error(err))
		sess, err = s.identity.SignUp(r.Context(), req.Email, req.Password)
		if err != nil {
			s.logger.Warn("sign-up failed", zap.String("email", req.Email), zap.Error(err))
			s.writeError(w, err)
			return
		}
		signedUp = true
	}

	resp := types.SignInResponse{
		Identity: &sess.Identity,
		Token:    sess.AccessToken,
		SignedUp: signedUp,
	}
	if userID, ok := s.users.EnsureUser(r.Context(), sess.Identity.ExternalID, sess.Identity.Email); ok {
		resp.UserID = userID
	}

	status := http.StatusOK
	if signedUp {
		status = http.StatusCreated
	}
	s.jsonResponse(w, status, resp)
}

// handleSignOut revokes the provider session and drops the caller's sessions.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if s.identity != nil {
		if err := s.identity.SignOut(r.Context(), middleware.GetToken(r)); err != nil {
			s.logger.Warn("provider sign-out failed", zap.String("external_id", caller.ExternalID), zap.Error(err))
		}
	}

	closed := s.sessions.DropOwner(caller.ExternalID)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"signed_out":      true,
		"sessions_closed": closed,
	})
}

// handleMe describes the caller.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resp := types.MeResponse{
		Identity:      &caller,
		Authenticated: true,
	}
	if u, ok := s.users.ResolveUser(r.Context(), &caller); ok {
		resp.UserID = &u.ID
		resp.IsPaid = u.IsPaid
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
