package http

import (
	"net/http"
	"strings"

	"carteira/internal/analytics"
	"carteira/internal/charts"
	"carteira/internal/log"
	"carteira/internal/report"
)

// monthRequest is the user, period and locale every month view needs.
type monthRequest struct {
	user   string
	period analytics.Period
	locale report.Locale
}

func (s *Server) parseMonthRequest(r *http.Request) (monthRequest, error) {
	user, err := ParseUser(r)
	if err != nil {
		return monthRequest{}, err
	}
	q := r.URL.Query()
	p, err := ParsePeriod(q, s.now(), s.location)
	if err != nil {
		return monthRequest{}, err
	}
	l, err := ParseLocale(q, s.locale)
	if err != nil {
		return monthRequest{}, err
	}
	return monthRequest{user: user, period: p, locale: l}, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseMonthRequest(r)
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	snap, err := s.ledger.Summary(r.Context(), req.user, req.period)
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(snap, req.locale))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseMonthRequest(r)
	if err != nil {
		writeError(w, r, log.OpCalendar, err)
		return
	}
	cal, err := s.ledger.Calendar(r.Context(), req.user, req.period)
	if err != nil {
		writeError(w, r, log.OpCalendar, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalendarResponse(cal, req.locale))
}

// handleReport renders the month as JSON, plain text or Markdown,
// chosen by the format query parameter.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseMonthRequest(r)
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	rep, err := s.ledger.Report(r.Context(), req.user, req.period, report.NewFormatter(req.locale))
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}

	switch format := strings.ToLower(r.URL.Query().Get("format")); format {
	case "", "json":
		writeJSON(w, http.StatusOK, rep)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(rep.Text()))
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(rep.Markdown()))
	default:
		writeError(w, r, log.OpReport, badRequest("unknown format %q", format))
	}
}

func (s *Server) handleDailyChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, (*charts.Renderer).DailySporadic)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, (*charts.Renderer).Categories)
}

func (s *Server) serveChart(w http.ResponseWriter, r *http.Request, draw func(*charts.Renderer, analytics.Snapshot) ([]byte, error)) {
	req, err := s.parseMonthRequest(r)
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}
	snap, err := s.ledger.Summary(r.Context(), req.user, req.period)
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}
	png, err := draw(charts.NewRenderer(req.locale), snap)
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
