// Package analytics derives month-scoped aggregates from a transaction
// collection. Every function here is pure: inputs arrive as parameters and
// nothing reads the clock, the environment or a store.
package analytics

import (
	"errors"
	"fmt"
	"time"

	"carteira/internal/core"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Period is a calendar month in a location. A nil Location means time.Local.
type Period struct {
	Year     int
	Month    time.Month
	Location *time.Location
}

func NewPeriod(year int, month time.Month, loc *time.Location) (Period, error) {
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	if year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	return Period{Year: year, Month: month, Location: loc}, nil
}

// PeriodOf returns the month containing t in loc.
func PeriodOf(t time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return Period{Year: lt.Year(), Month: lt.Month(), Location: loc}
}

func (p Period) Loc() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// Start is midnight of the first day of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, p.Loc())
}

// End is the start of the following month.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

func (p Period) DaysInMonth() int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, p.Loc()).Day()
}

func (p Period) Contains(t time.Time) bool {
	lt := t.In(p.Loc())
	return lt.Year() == p.Year && lt.Month() == p.Month
}

func (p Period) Next() Period {
	s := p.Start().AddDate(0, 1, 0)
	return Period{Year: s.Year(), Month: s.Month(), Location: p.Location}
}

func (p Period) Prev() Period {
	s := p.Start().AddDate(0, -1, 0)
	return Period{Year: s.Year(), Month: s.Month(), Location: p.Location}
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Key identifies the period together with its location, for cache keys.
func (p Period) Key() string {
	return p.String() + "@" + p.Loc().String()
}

// FilterPeriod returns the transactions dated inside p, keeping their
// relative order. It returns an empty, non-nil slice when nothing matches.
func FilterPeriod(txs []core.Transaction, p Period) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, tx := range txs {
		if p.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}
