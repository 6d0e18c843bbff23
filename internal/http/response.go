package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"carteira/internal/advisor"
	"carteira/internal/analytics"
	"carteira/internal/charts"
	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/middleware/trace"
	"carteira/internal/report"
	"carteira/internal/store"
)

var errAdvisorDisabled = errors.New("advisor not configured")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, store.ErrInvalidUser),
		errors.Is(err, analytics.ErrInvalidPeriod),
		errors.Is(err, advisor.ErrEmptyPrompt),
		errors.Is(err, advisor.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, charts.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateID):
		return http.StatusConflict
	case isValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, advisor.ErrAdvisorUnavailable), errors.Is(err, advisor.ErrNoImage):
		return http.StatusBadGateway
	case errors.Is(err, errAdvisorDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount, core.ErrEmptyID, core.ErrEmptyDescription, core.ErrDescriptionTooLong,
		core.ErrInvalidType, core.ErrInvalidExpenseType, core.ErrInvalidCategory, core.ErrZeroDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		log.LogError(r.Context(), "Request failed", err, op, log.LogFields{log.FieldStatusCode: status})
		if status == http.StatusInternalServerError {
			msg = http.StatusText(status)
		}
	}
	writeJSON(w, status, errorResponse{Error: msg, RequestID: trace.GetRequestID(r.Context())})
}

// amount is a money value with its locale rendering.
type amount struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func newAmount(m core.Money, l report.Locale) amount {
	return amount{Cents: m.Cents, Formatted: l.Format(m)}
}

type dayAmountResponse struct {
	Day    int    `json:"day"`
	Amount amount `json:"amount"`
	IsMax  bool   `json:"isMax"`
}

type categoryResponse struct {
	Category   string  `json:"category"`
	Amount     amount  `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type summaryResponse struct {
	Period         string              `json:"period"`
	Count          int                 `json:"count"`
	TotalIncome    amount              `json:"totalIncome"`
	TotalExpense   amount              `json:"totalExpense"`
	Balance        amount              `json:"balance"`
	DailySporadic  []dayAmountResponse `json:"dailySporadic"`
	MaxSporadicDay int                 `json:"maxSporadicDay"`
	Categories     []categoryResponse  `json:"categories"`
	FixedShare     float64             `json:"fixedShare"`
	SporadicShare  float64             `json:"sporadicShare"`
}

func newSummaryResponse(s analytics.Snapshot, l report.Locale) summaryResponse {
	out := summaryResponse{
		Period:         s.Period.String(),
		Count:          s.Count,
		TotalIncome:    newAmount(s.TotalIncome, l),
		TotalExpense:   newAmount(s.TotalExpense, l),
		Balance:        newAmount(s.Balance, l),
		DailySporadic:  make([]dayAmountResponse, len(s.DailySporadic)),
		MaxSporadicDay: s.MaxSporadicDay,
		Categories:     make([]categoryResponse, len(s.Categories)),
		FixedShare:     s.Split.Fixed,
		SporadicShare:  s.Split.Sporadic,
	}
	for i, d := range s.DailySporadic {
		out.DailySporadic[i] = dayAmountResponse{Day: d.Day, Amount: newAmount(d.Amount, l), IsMax: d.IsMax}
	}
	for i, c := range s.Categories {
		out.Categories[i] = categoryResponse{Category: string(c.Category), Amount: newAmount(c.Amount, l), Percentage: c.Percentage}
	}
	return out
}

type calendarDayResponse struct {
	Day          int           `json:"day"`
	Weekday      string        `json:"weekday"`
	Income       amount        `json:"income"`
	Expense      amount        `json:"expense"`
	HasIncome    bool          `json:"hasIncome"`
	Intensity    float64       `json:"intensity"`
	IsPeak       bool          `json:"isPeak"`
	Transactions []core.Record `json:"transactions"`
}

type calendarResponse struct {
	Period        string                `json:"period"`
	LeadingBlanks int                   `json:"leadingBlanks"`
	MaxExpense    amount                `json:"maxExpense"`
	PeakDay       int                   `json:"peakDay"`
	Days          []calendarDayResponse `json:"days"`
}

func newCalendarResponse(c analytics.Calendar, l report.Locale) calendarResponse {
	out := calendarResponse{
		Period:        c.Period.String(),
		LeadingBlanks: c.LeadingBlanks,
		MaxExpense:    newAmount(c.MaxExpense, l),
		PeakDay:       c.PeakDay,
		Days:          make([]calendarDayResponse, len(c.Days)),
	}
	for i, d := range c.Days {
		out.Days[i] = calendarDayResponse{
			Day:          d.Day,
			Weekday:      d.Weekday.String(),
			Income:       newAmount(d.Income, l),
			Expense:      newAmount(d.Expense, l),
			HasIncome:    d.HasIncome,
			Intensity:    d.Intensity,
			IsPeak:       d.IsPeak,
			Transactions: records(d.Transactions),
		}
	}
	return out
}

func records(txs []core.Transaction) []core.Record {
	out := make([]core.Record, len(txs))
	for i, tx := range txs {
		out[i] = tx.Record()
	}
	return out
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
	Advisor   bool   `json:"advisor"`
	Requests  int64  `json:"requests"`
}

func newHealthResponse(start, now time.Time, advisorEnabled bool, requests int64) healthResponse {
	return healthResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		Uptime:    now.Sub(start).Round(time.Second).String(),
		Advisor:   advisorEnabled,
		Requests:  requests,
	}
}
