// Package report renders aggregates as human-readable summaries, for
// display and as context handed to the advisor.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"carteira/internal/core"
)

var (
	ErrUnknownLocale       = errors.New("unknown locale")
	ErrInvalidNumberFormat = errors.New("invalid number format")
)

const defaultNumberFormat = "#,###.##"

// Labels are the fixed words of a report in one language.
type Labels struct {
	Balance     string
	Income      string
	Expense     string
	TopCategory string
	SpikeDay    string
	PeakDay     string
	Split       string
	Fixed       string
	Sporadic    string
	Categories  string
	None        string
	Day         string
	Months      [12]string
}

// Locale controls currency and number presentation. NumberFormat is a
// go-humanize style format with a grouping separator and two decimals, such
// as "#.###,##" or "# ###,##". An empty format means "#,###.##".
type Locale struct {
	Name         string
	Symbol       string
	NumberFormat string
	SymbolAfter  bool
	DateLayout   string
	Labels       Labels
}

var portuguese = Labels{
	Balance:     "Saldo Mensal",
	Income:      "Receitas",
	Expense:     "Despesas",
	TopCategory: "Maior categoria",
	SpikeDay:    "Maior gasto esporádico",
	PeakDay:     "Dia de maior gasto",
	Split:       "Fixo x Esporádico",
	Fixed:       "Fixo",
	Sporadic:    "Esporádico",
	Categories:  "Gastos por categoria",
	None:        "nenhum",
	Day:         "dia",
	Months:      [12]string{"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho", "Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro"},
}

var english = Labels{
	Balance:     "Monthly balance",
	Income:      "Income",
	Expense:     "Expenses",
	TopCategory: "Top category",
	SpikeDay:    "Largest sporadic spend",
	PeakDay:     "Peak spending day",
	Split:       "Fixed vs sporadic",
	Fixed:       "Fixed",
	Sporadic:    "Sporadic",
	Categories:  "Spending by category",
	None:        "none",
	Day:         "day",
	Months:      [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
}

var german = Labels{
	Balance:     "Monatssaldo",
	Income:      "Einnahmen",
	Expense:     "Ausgaben",
	TopCategory: "Größte Kategorie",
	SpikeDay:    "Höchste spontane Ausgabe",
	PeakDay:     "Tag mit den höchsten Ausgaben",
	Split:       "Fix / spontan",
	Fixed:       "Fix",
	Sporadic:    "Spontan",
	Categories:  "Ausgaben nach Kategorie",
	None:        "keine",
	Day:         "Tag",
	Months:      [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
}

var (
	PtBR = Locale{Name: "pt-BR", Symbol: "R$", NumberFormat: "#.###,##", DateLayout: "02/01/2006", Labels: portuguese}
	EnUS = Locale{Name: "en-US", Symbol: "$", NumberFormat: "#,###.##", DateLayout: "1/2/2006", Labels: english}
	DeDE = Locale{Name: "de-DE", Symbol: "€", NumberFormat: "#.###,##", SymbolAfter: true, DateLayout: "02.01.2006", Labels: german}
)

// DefaultLocale matches the product's home market.
var DefaultLocale = PtBR

var locales = map[string]Locale{
	"pt-br": PtBR,
	"en-us": EnUS,
	"de-de": DeDE,
}

// LocaleByName looks up a preset by its BCP 47 tag, case-insensitively.
func LocaleByName(name string) (Locale, error) {
	if l, ok := locales[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l, nil
	}
	return Locale{}, fmt.Errorf("%w: %q", ErrUnknownLocale, name)
}

// LocaleNames lists the available presets.
func LocaleNames() []string {
	return []string{PtBR.Name, EnUS.Name, DeDE.Name}
}

// Validate reports whether NumberFormat has a shape Number can render.
func (l Locale) Validate() error {
	_, _, err := separators(l.NumberFormat)
	return err
}

// Number formats m without a currency symbol, e.g. "1.234,56". An invalid
// NumberFormat renders with the default format.
func (l Locale) Number(m core.Money) string {
	group, dec, err := separators(l.NumberFormat)
	if err != nil {
		group, dec, _ = separators(defaultNumberFormat)
	}
	cents := uint64(m.Cents)
	neg := m.Cents < 0
	if neg {
		cents = -cents
	}
	// humanize groups the integer part exactly; the cents are appended so no
	// float ever touches the amount.
	whole := humanize.Comma(int64(cents / 100))
	if group != "," {
		whole = strings.ReplaceAll(whole, ",", group)
	}
	s := fmt.Sprintf("%s%s%02d", whole, dec, cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// separators splits a format like "#.###,##" into its grouping and decimal
// separators. The grouping separator may be omitted ("####,##").
func separators(format string) (group, dec string, err error) {
	if format == "" {
		format = defaultNumberFormat
	}
	r := []rune(format)
	n := len(r)
	if n < 7 || string(r[n-2:]) != "##" || r[n-3] == '#' || string(r[n-6:n-3]) != "###" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidNumberFormat, format)
	}
	dec = string(r[n-3])
	switch prefix := r[:n-6]; {
	case len(prefix) == 1 && prefix[0] == '#':
	case len(prefix) == 2 && prefix[0] == '#' && prefix[1] != '#' && string(prefix[1]) != dec:
		group = string(prefix[1])
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidNumberFormat, format)
	}
	return group, dec, nil
}

// Format renders m with the currency symbol, e.g. "R$ 1.234,56" or
// "1.234,56 €".
func (l Locale) Format(m core.Money) string {
	n := l.Number(m)
	sign := ""
	if strings.HasPrefix(n, "-") {
		sign, n = "-", n[1:]
	}
	if l.SymbolAfter {
		return sign + n + " " + l.Symbol
	}
	return sign + l.Symbol + " " + n
}

// MonthName returns the localized month name, 1-based.
func (l Locale) MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return l.Labels.Months[m-1]
}

// Percent renders a percentage with one decimal, using the locale's
// decimal separator.
func (l Locale) Percent(p float64) string {
	s := fmt.Sprintf("%.1f%%", p)
	if l.decimalSeparator() == "," {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

func (l Locale) decimalSeparator() string {
	if _, dec, err := separators(l.NumberFormat); err == nil {
		return dec
	}
	return "."
}
