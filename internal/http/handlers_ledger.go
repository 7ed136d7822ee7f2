package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/insights"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// load refreshes the session from the store. Failed halves come back
// empty with a warning; only a session change is an error.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (services.LoadResult, bool) {
	res, err := s.ledger.Load(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeError(w, r, log.OpLoad, err)
		return res, false
	}
	return res, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	window := insights.ParseWindow(r.URL.Query().Get("range"))
	txs := insights.FilterRange(res.Transactions, insights.TransactionDates, window, s.today())
	NewResponse().Data(txs).Warnings(res.Warnings...).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	t, err := req.transaction(s.loc)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	out, err := s.ledger.AddTransaction(r.Context(), sessionFrom(r.Context()), t)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	resp := NewResponse().Status(http.StatusCreated).Data(out.Transaction)
	if len(out.Warnings) > 0 {
		resp.Warnings(out.Warnings...)
	} else {
		resp.Success("Transaction added.")
	}
	resp.Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	patch, err := req.patch(s.loc)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	out, err := s.ledger.UpdateTransaction(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewResponse().Data(out.Transaction).Success("Transaction updated.").Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewResponse().Success("Transaction deleted.").Write(w)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	window := insights.ParseWindow(r.URL.Query().Get("range"))
	goals := insights.FilterRange(res.Goals, insights.GoalDates, window, s.today())
	NewResponse().Data(goals).Warnings(res.Warnings...).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	g, err := req.goal(s.loc)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	out, err := s.ledger.CreateGoal(r.Context(), sessionFrom(r.Context()), g)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(out.Goal).Success("Goal created.").Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	patch, err := req.patch(s.loc)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	out, err := s.ledger.UpdateGoal(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewResponse().Data(out.Goal).Success("Goal updated.").Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteGoal(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewResponse().Success("Goal deleted.").Write(w)
}
