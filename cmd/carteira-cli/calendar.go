package main

import (
	"fmt"
	"io"
	"strings"

	"carteira/internal/analytics"
	"carteira/internal/report"
)

// shades map intensity to a glyph, lightest first.
var shades = []string{"·", "░", "▒", "▓", "█"}

func shade(intensity float64) string {
	if intensity <= 0 {
		return shades[0]
	}
	i := 1 + int(intensity*float64(len(shades)-2))
	if i >= len(shades) {
		i = len(shades) - 1
	}
	return shades[i]
}

// renderCalendar prints the month as a Sunday-first grid. Each cell shows
// the day, a spending shade, + for income and * for the peak day.
func renderCalendar(w io.Writer, c analytics.Calendar, l report.Locale) {
	fmt.Fprintf(w, "%s %d\n", l.MonthName(int(c.Period.Month)), c.Period.Year)
	var header strings.Builder
	for _, name := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		fmt.Fprintf(&header, "%3s   ", name)
	}
	fmt.Fprintln(w, strings.TrimRight(header.String(), " "))

	var row strings.Builder
	col := 0
	for ; col < c.LeadingBlanks; col++ {
		row.WriteString("      ")
	}
	for _, d := range c.Days {
		mark := " "
		switch {
		case d.IsPeak:
			mark = "*"
		case d.HasIncome:
			mark = "+"
		}
		fmt.Fprintf(&row, "%3d%s%s ", d.Day, shade(d.Intensity), mark)
		col++
		if col == 7 {
			fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
			row.Reset()
			col = 0
		}
	}
	if row.Len() > 0 {
		fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
	}

	if c.PeakDay > 0 {
		fmt.Fprintf(w, "\n%s: %s %d (%s)\n", l.Labels.PeakDay, l.Labels.Day, c.PeakDay, l.Format(c.PeakExpense()))
	} else {
		fmt.Fprintf(w, "\n%s: %s\n", l.Labels.PeakDay, l.Labels.None)
	}
}
