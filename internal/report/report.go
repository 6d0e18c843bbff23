package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carteira/internal/analytics"
	"carteira/internal/core"
)

// Line is one labelled figure of a report.
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Report is a rendered month summary. The headline figures are always
// present; SpikeDay and PeakDay are empty when the month has none.
type Report struct {
	Title       string `json:"title"`
	Balance     string `json:"balance"`
	Income      string `json:"income"`
	Expense     string `json:"expense"`
	TopCategory string `json:"topCategory"`
	SpikeDay    string `json:"spikeDay,omitempty"`
	PeakDay     string `json:"peakDay,omitempty"`
	Split       string `json:"split"`
	Categories  []Line `json:"categories"`

	labels Labels
}

// Formatter renders snapshots for one locale.
type Formatter struct {
	Locale Locale
}

func NewFormatter(l Locale) Formatter {
	return Formatter{Locale: l}
}

// Month renders the summary of a month from its snapshot and calendar.
func (f Formatter) Month(s analytics.Snapshot, c analytics.Calendar) Report {
	l := f.Locale
	r := Report{
		Title:      fmt.Sprintf("%s %d", l.MonthName(int(s.Period.Month)), s.Period.Year),
		Balance:    l.Format(s.Balance),
		Income:     l.Format(s.TotalIncome),
		Expense:    l.Format(s.TotalExpense),
		Split:      fmt.Sprintf("%s %s / %s %s", l.Labels.Fixed, l.Percent(s.Split.Fixed), l.Labels.Sporadic, l.Percent(s.Split.Sporadic)),
		Categories: make([]Line, 0, len(s.Categories)),
		labels:     l.Labels,
	}

	if top, ok := s.TopCategory(); ok {
		r.TopCategory = fmt.Sprintf("%s (%s, %s)", top.Category, l.Format(top.Amount), l.Percent(top.Percentage))
	} else {
		r.TopCategory = l.Labels.None
	}
	if s.MaxSporadicDay > 0 {
		r.SpikeDay = fmt.Sprintf("%s %d (%s)", l.Labels.Day, s.MaxSporadicDay, l.Format(s.SporadicMax()))
	}
	if c.PeakDay > 0 {
		r.PeakDay = fmt.Sprintf("%s %d (%s)", l.Labels.Day, c.PeakDay, l.Format(c.PeakExpense()))
	}
	for _, cs := range s.Categories {
		r.Categories = append(r.Categories, Line{
			Label: cs.Category.String(),
			Value: fmt.Sprintf("%s (%s)", l.Format(cs.Amount), l.Percent(cs.Percentage)),
		})
	}
	return r
}

func (r Report) headline() []Line {
	lines := []Line{
		{r.labels.Balance, r.Balance},
		{r.labels.Income, r.Income},
		{r.labels.Expense, r.Expense},
		{r.labels.TopCategory, r.TopCategory},
	}
	if r.SpikeDay != "" {
		lines = append(lines, Line{r.labels.SpikeDay, r.SpikeDay})
	}
	if r.PeakDay != "" {
		lines = append(lines, Line{r.labels.PeakDay, r.PeakDay})
	}
	return append(lines, Line{r.labels.Split, r.Split})
}

// Text renders the report as plain text.
func (r Report) Text() string {
	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteByte('\n')
	for _, ln := range r.headline() {
		fmt.Fprintf(&b, "%s: %s\n", ln.Label, ln.Value)
	}
	if len(r.Categories) > 0 {
		fmt.Fprintf(&b, "%s:\n", r.labels.Categories)
		for _, ln := range r.Categories {
			fmt.Fprintf(&b, "  %s: %s\n", ln.Label, ln.Value)
		}
	}
	return b.String()
}

// Markdown renders the report for chat-style displays.
func (r Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", r.Title)
	for _, ln := range r.headline() {
		fmt.Fprintf(&b, "- **%s:** %s\n", ln.Label, ln.Value)
	}
	if len(r.Categories) > 0 {
		fmt.Fprintf(&b, "\n### %s\n\n| | |\n|---|---|\n", r.labels.Categories)
		for _, ln := range r.Categories {
			fmt.Fprintf(&b, "| %s | %s |\n", ln.Label, ln.Value)
		}
	}
	return b.String()
}

type contextEntry struct {
	Desc   string  `json:"desc"`
	Amount float64 `json:"amt"`
	Type   string  `json:"type"`
	Cat    string  `json:"cat"`
	Date   string  `json:"date"`
}

// AdvisoryContext serializes transactions as the compact JSON array the
// advisor receives as context. Dates use the locale's layout in tz.
func AdvisoryContext(txs []core.Transaction, l Locale, tz *time.Location) (string, error) {
	if tz == nil {
		tz = time.Local
	}
	layout := l.DateLayout
	if layout == "" {
		layout = time.DateOnly
	}
	entries := make([]contextEntry, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, contextEntry{
			Desc:   tx.Description,
			Amount: tx.Amount.Units(),
			Type:   string(tx.Type),
			Cat:    string(tx.Category),
			Date:   tx.Date.In(tz).Format(layout),
		})
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshal advisory context: %w", err)
	}
	return string(b), nil
}
