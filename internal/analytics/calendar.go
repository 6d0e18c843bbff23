package analytics

import (
	"time"

	"carteira/internal/core"
)

// intensityFloor keeps the heat scale defined when a month has no expense.
var intensityFloor = core.Money{Cents: 100}

// CalendarDay is one cell of the month heatmap. Expense combines fixed and
// sporadic spending; income is carried separately.
type CalendarDay struct {
	Day          int
	Weekday      time.Weekday
	Income       core.Money
	Expense      core.Money
	HasIncome    bool
	Intensity    float64
	IsPeak       bool
	Transactions []core.Transaction
}

// Calendar is the month heatmap. LeadingBlanks is the weekday of day 1,
// counting Sunday as 0, for grid layout.
type Calendar struct {
	Period        Period
	LeadingBlanks int
	// MaxExpense is the largest daily expense, never below one currency unit.
	MaxExpense core.Money
	// PeakDay is the first day flagged IsPeak, or 0.
	PeakDay int
	Days    []CalendarDay
}

// BuildCalendar maps each day of p to its combined expense, a normalized
// intensity in [0, 1] and an independent income flag. Transactions outside
// p are ignored; within a day they keep their input order.
func BuildCalendar(txs []core.Transaction, p Period) Calendar {
	loc := p.Loc()
	c := Calendar{
		Period:        p,
		LeadingBlanks: int(p.Start().Weekday()),
		Days:          make([]CalendarDay, p.DaysInMonth()),
	}
	for i := range c.Days {
		c.Days[i].Day = i + 1
		c.Days[i].Weekday = time.Date(p.Year, p.Month, i+1, 0, 0, 0, 0, loc).Weekday()
	}

	for _, tx := range txs {
		if !p.Contains(tx.Date) {
			continue
		}
		d := &c.Days[tx.Date.In(loc).Day()-1]
		d.Transactions = append(d.Transactions, tx)
		if tx.IsIncome() {
			d.HasIncome = true
			d.Income = d.Income.Add(tx.Amount)
		} else {
			d.Expense = d.Expense.Add(tx.Amount)
		}
	}

	c.MaxExpense = intensityFloor
	for _, d := range c.Days {
		if d.Expense.Cents > c.MaxExpense.Cents {
			c.MaxExpense = d.Expense
		}
	}

	for i := range c.Days {
		d := &c.Days[i]
		d.Intensity = float64(d.Expense.Cents) / float64(c.MaxExpense.Cents)
		if d.Intensity > 1 {
			d.Intensity = 1
		}
		if d.Expense.Cents > 0 && d.Expense.Cents >= c.MaxExpense.Cents {
			d.IsPeak = true
			if c.PeakDay == 0 {
				c.PeakDay = d.Day
			}
		}
	}
	return c
}

// Day returns the cell for day n, 1-based.
func (c Calendar) Day(n int) (CalendarDay, bool) {
	if n < 1 || n > len(c.Days) {
		return CalendarDay{}, false
	}
	return c.Days[n-1], true
}

// PeakExpense returns the expense of PeakDay, or zero.
func (c Calendar) PeakExpense() core.Money {
	if d, ok := c.Day(c.PeakDay); ok {
		return d.Expense
	}
	return core.Money{}
}
