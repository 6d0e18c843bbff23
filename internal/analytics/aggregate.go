package analytics

import (
	"sort"

	"carteira/internal/core"
)

// DayAmount is one day of the sporadic spending series.
type DayAmount struct {
	Day    int
	Amount core.Money
	// IsMax marks every day holding the month's positive maximum.
	IsMax bool
}

// CategoryShare is the expense total of one category and its share of the
// month's total expense, in percent.
type CategoryShare struct {
	Category   core.Category
	Amount     core.Money
	Percentage float64
}

// Split is the share of total expense that is fixed or sporadic, in percent.
type Split struct {
	Fixed    float64
	Sporadic float64
}

// Snapshot is the full set of derived metrics for one month.
type Snapshot struct {
	Period       Period
	Count        int
	TotalIncome  core.Money
	TotalExpense core.Money
	Balance      core.Money

	// DailySporadic has one entry per day of the month, in day order.
	// Fixed expenses are left out to isolate unplanned spikes.
	DailySporadic []DayAmount
	// MaxSporadicDay is the first day holding the strict maximum of
	// DailySporadic, or 0 when there is no sporadic spending.
	MaxSporadicDay int

	// Categories is sorted by amount, largest first; ties keep the order in
	// which the category first appeared in the input.
	Categories []CategoryShare
	Split      Split
}

// Aggregate computes the snapshot of p from txs. Transactions dated outside
// p are ignored, so passing the full collection is safe.
func Aggregate(txs []core.Transaction, p Period) Snapshot {
	s := Snapshot{
		Period:        p,
		DailySporadic: make([]DayAmount, p.DaysInMonth()),
		Categories:    make([]CategoryShare, 0),
	}
	for i := range s.DailySporadic {
		s.DailySporadic[i].Day = i + 1
	}

	var fixed, sporadic core.Money
	byCategory := make(map[core.Category]int)
	loc := p.Loc()

	for _, tx := range txs {
		if !p.Contains(tx.Date) {
			continue
		}
		s.Count++
		if tx.IsIncome() {
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
			continue
		}

		s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		if tx.IsFixed() {
			fixed = fixed.Add(tx.Amount)
		} else {
			sporadic = sporadic.Add(tx.Amount)
			d := &s.DailySporadic[tx.Date.In(loc).Day()-1]
			d.Amount = d.Amount.Add(tx.Amount)
		}

		cat := tx.Category
		if !cat.Valid() {
			cat = core.CategoryOther
		}
		idx, seen := byCategory[cat]
		if !seen {
			idx = len(s.Categories)
			byCategory[cat] = idx
			s.Categories = append(s.Categories, CategoryShare{Category: cat})
		}
		s.Categories[idx].Amount = s.Categories[idx].Amount.Add(tx.Amount)
	}

	s.Balance = s.TotalIncome.Sub(s.TotalExpense)

	for i := range s.Categories {
		s.Categories[i].Percentage = s.Categories[i].Amount.Ratio(s.TotalExpense)
	}
	sort.SliceStable(s.Categories, func(i, j int) bool {
		return s.Categories[i].Amount.Cents > s.Categories[j].Amount.Cents
	})

	s.Split = Split{
		Fixed:    fixed.Ratio(s.TotalExpense),
		Sporadic: sporadic.Ratio(s.TotalExpense),
	}

	var peak core.Money
	for _, d := range s.DailySporadic {
		if d.Amount.Cents > peak.Cents {
			peak = d.Amount
		}
	}
	if peak.Cents > 0 {
		for i := range s.DailySporadic {
			if s.DailySporadic[i].Amount == peak {
				s.DailySporadic[i].IsMax = true
				if s.MaxSporadicDay == 0 {
					s.MaxSporadicDay = s.DailySporadic[i].Day
				}
			}
		}
	}
	return s
}

// Summarize filters all to p and aggregates the result.
func Summarize(all []core.Transaction, p Period) Snapshot {
	return Aggregate(FilterPeriod(all, p), p)
}

// TopCategory returns the category with the largest expense.
func (s Snapshot) TopCategory() (CategoryShare, bool) {
	if len(s.Categories) == 0 {
		return CategoryShare{}, false
	}
	return s.Categories[0], true
}

// SporadicMax returns the amount spent on MaxSporadicDay.
func (s Snapshot) SporadicMax() core.Money {
	if s.MaxSporadicDay == 0 {
		return core.Money{}
	}
	return s.DailySporadic[s.MaxSporadicDay-1].Amount
}

// DailySporadicMap returns the sporadic series keyed by day.
func (s Snapshot) DailySporadicMap() map[int]core.Money {
	m := make(map[int]core.Money, len(s.DailySporadic))
	for _, d := range s.DailySporadic {
		m[d.Day] = d.Amount
	}
	return m
}
