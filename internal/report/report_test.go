package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"carteira/internal/analytics"
	"carteira/internal/core"
)

func TestLocaleFormat(t *testing.T) {
	cases := []struct {
		loc   Locale
		cents int64
		want  string
	}{
		{PtBR, 123456, "R$ 1.234,56"},
		{PtBR, 5, "R$ 0,05"},
		{PtBR, 0, "R$ 0,00"},
		{PtBR, -112000, "-R$ 1.120,00"},
		{EnUS, 123456789, "$ 1,234,567.89"},
		{EnUS, 28, "$ 0.28"},
		{DeDE, 99999, "999,99 €"},
		{DeDE, -100, "-1,00 €"},
	}
	for _, tc := range cases {
		if got := tc.loc.Format(core.Money{Cents: tc.cents}); got != tc.want {
			t.Fatalf("%s Format(%d) = %q, want %q", tc.loc.Name, tc.cents, got, tc.want)
		}
	}
}

func TestLocaleNumberFormats(t *testing.T) {
	huge := core.Money{Cents: 9_007_199_254_740_993_01}
	cases := []struct {
		format string
		cents  int64
		want   string
	}{
		{"#.###,##", 123456, "1.234,56"},
		{"#,###.##", 123456, "1,234.56"},
		{"# ###,##", 123456789, "1 234 567,89"},
		{"####,##", 123456789, "1234567,89"},
		{"", 100, "1.00"},
		{"#.###,##", huge.Cents, "9.007.199.254.740.993,01"},
	}
	for _, tc := range cases {
		l := Locale{NumberFormat: tc.format}
		if err := l.Validate(); err != nil {
			t.Fatalf("Validate(%q): %v", tc.format, err)
		}
		if got := l.Number(core.Money{Cents: tc.cents}); got != tc.want {
			t.Fatalf("Number(%d) with %q = %q, want %q", tc.cents, tc.format, got, tc.want)
		}
	}

	for _, bad := range []string{"#,###.", "#.###", "#,###", "#.###.##", "abc"} {
		l := Locale{NumberFormat: bad}
		if err := l.Validate(); !errors.Is(err, ErrInvalidNumberFormat) {
			t.Fatalf("Validate(%q) = %v, want ErrInvalidNumberFormat", bad, err)
		}
		if got := l.Number(core.Money{Cents: 123456}); got != "1,234.56" {
			t.Fatalf("Number with %q = %q, want the default rendering", bad, got)
		}
	}
}

func TestLocaleByName(t *testing.T) {
	for _, name := range []string{"pt-BR", "EN-us", " de-de "} {
		if _, err := LocaleByName(name); err != nil {
			t.Fatalf("LocaleByName(%q) error: %v", name, err)
		}
	}
	if _, err := LocaleByName("fr-FR"); err == nil {
		t.Fatalf("expected error for unknown locale")
	}
	if PtBR.Percent(62.5) != "62,5%" || EnUS.Percent(37.5) != "37.5%" {
		t.Fatalf("percent formatting: %s %s", PtBR.Percent(62.5), EnUS.Percent(37.5))
	}
}

func januarySnapshot() (analytics.Snapshot, analytics.Calendar) {
	p := analytics.Period{Year: 2025, Month: time.January, Location: time.UTC}
	day := func(d int) time.Time { return time.Date(2025, time.January, d, 12, 0, 0, 0, time.UTC) }
	txs := []core.Transaction{
		{ID: "1", Description: "Mercado", Amount: core.Money{Cents: 5000}, Type: core.Expense, ExpenseType: core.Sporadic, Category: core.CategoryFood, Date: day(5)},
		{ID: "2", Description: "Salário", Amount: core.Money{Cents: 120000}, Type: core.Income, Category: core.CategorySalary, Date: day(1)},
		{ID: "3", Description: "Uber", Amount: core.Money{Cents: 3000}, Type: core.Expense, ExpenseType: core.Sporadic, Category: core.CategoryTransport, Date: day(5)},
	}
	return analytics.Summarize(txs, p), analytics.BuildCalendar(txs, p)
}

func TestFormatterMonth(t *testing.T) {
	s, c := januarySnapshot()
	r := NewFormatter(PtBR).Month(s, c)

	if r.Title != "Janeiro 2025" {
		t.Fatalf("title = %q", r.Title)
	}
	if r.Balance != "R$ 1.120,00" || r.Income != "R$ 1.200,00" || r.Expense != "R$ 80,00" {
		t.Fatalf("headline = %s / %s / %s", r.Balance, r.Income, r.Expense)
	}
	if r.TopCategory != "Alimentação (R$ 50,00, 62,5%)" {
		t.Fatalf("top category = %q", r.TopCategory)
	}
	if r.SpikeDay != "dia 5 (R$ 80,00)" || r.PeakDay != "dia 5 (R$ 80,00)" {
		t.Fatalf("spike/peak = %q / %q", r.SpikeDay, r.PeakDay)
	}

	text := r.Text()
	for _, want := range []string{"Saldo Mensal: R$ 1.120,00", "Receitas: R$ 1.200,00", "Despesas: R$ 80,00", "Transporte: R$ 30,00 (37,5%)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
	md := r.Markdown()
	if !strings.HasPrefix(md, "## Janeiro 2025") || !strings.Contains(md, "| Alimentação | R$ 50,00 (62,5%) |") {
		t.Fatalf("unexpected markdown:\n%s", md)
	}
}

func TestFormatterEmptyMonth(t *testing.T) {
	p := analytics.Period{Year: 2025, Month: time.March, Location: time.UTC}
	r := NewFormatter(EnUS).Month(analytics.Summarize(nil, p), analytics.BuildCalendar(nil, p))

	if r.TopCategory != "none" || r.SpikeDay != "" || r.PeakDay != "" {
		t.Fatalf("empty month report = %+v", r)
	}
	text := r.Text()
	if strings.Contains(text, "Peak spending day") || !strings.Contains(text, "Monthly balance: $ 0.00") {
		t.Fatalf("unexpected text:\n%s", text)
	}
}

func TestAdvisoryContext(t *testing.T) {
	tx := core.Transaction{ID: "1", Description: "Aluguel", Amount: core.Money{Cents: 150050}, Type: core.Expense, ExpenseType: core.Fixed, Category: core.CategoryHousing, Date: time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)}

	out, err := AdvisoryContext([]core.Transaction{tx}, PtBR, time.UTC)
	if err != nil {
		t.Fatalf("AdvisoryContext error: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	want := map[string]any{"desc": "Aluguel", "amt": 1500.5, "type": "EXPENSE", "cat": "Moradia", "date": "10/01/2025"}
	if len(got) != 1 {
		t.Fatalf("expected one entry, got %d", len(got))
	}
	for k, v := range want {
		if got[0][k] != v {
			t.Fatalf("%s = %v, want %v", k, got[0][k], v)
		}
	}

	empty, err := AdvisoryContext(nil, EnUS, nil)
	if err != nil || empty != "[]" {
		t.Fatalf("empty context = %q, %v", empty, err)
	}
}
