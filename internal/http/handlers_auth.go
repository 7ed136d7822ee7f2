package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const resetRequestedMessage = "If the address is registered, a reset link is on its way."

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpRegister, err)
		return
	}
	in, err := s.auth.Register(r.Context(), core.Registration{
		Name:     sanitizeInput(req.Name),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, log.OpRegister, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(in).Success("Welcome, " + in.User.Name + "!").Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpLogin, err)
		return
	}
	in, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, log.OpLogin, err)
		return
	}
	NewResponse().Data(in).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), claimsFrom(r.Context())); err != nil {
		writeError(w, r, log.OpLogout, err)
		return
	}
	NewResponse().Success("Signed out.").Write(w)
}

// handleResetPassword answers the same way whether or not the address is
// registered.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpReset, err)
		return
	}
	if err := s.auth.ResetPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, log.OpReset, err)
		return
	}
	NewResponse().Status(http.StatusAccepted).Success(resetRequestedMessage).Write(w)
}

func (s *Server) handleConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpReset, err)
		return
	}
	if err := s.auth.ConfirmPasswordReset(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, r, log.OpReset, err)
		return
	}
	NewResponse().Success("Password updated. Please sign in.").Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	NewResponse().Data(sessionFrom(r.Context()).User()).Write(w)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	sess := sessionFrom(r.Context())
	user, err := s.auth.UpdateName(r.Context(), sess.UserID(), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	sess.SetUser(user)
	NewResponse().Data(user).Success("Profile updated.").Write(w)
}

func handleCategories(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Data(map[core.Kind][]core.Category{
		core.KindIncome:  core.CategoriesFor(core.KindIncome),
		core.KindExpense: core.CategoriesFor(core.KindExpense),
	}).Write(w)
}
