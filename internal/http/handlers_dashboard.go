package http

import (
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	window := insights.ParseWindow(r.URL.Query().Get("range"))
	dash := insights.BuildDashboard(res.Transactions, res.Goals, window, s.today())
	NewResponse().Data(dash).Warnings(res.Warnings...).Write(w)
}

// handleCalendar summarizes the week, month or year around anchor, which
// defaults to today.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := insights.ParseScope(q.Get("scope"))
	if err != nil {
		writeError(w, r, log.OpRead, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	anchor := s.today()
	if v := strings.TrimSpace(q.Get("anchor")); v != "" {
		anchor, err = core.ParseDay(v, s.loc)
		if err != nil {
			writeError(w, r, log.OpRead, &core.ValidationError{Field: "anchor", Err: err})
			return
		}
	}

	res, ok := s.load(w, r)
	if !ok {
		return
	}
	buckets := insights.BucketByDay(s.loc, res.Transactions, res.Goals)
	NewResponse().Data(insights.SummarizeCalendar(buckets, scope, anchor)).Warnings(res.Warnings...).Write(w)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	NewResponse().Data(insights.DailySeries(s.loc, res.Transactions)).Warnings(res.Warnings...).Write(w)
}
