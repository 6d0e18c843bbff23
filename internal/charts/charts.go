// Package charts renders monthly snapshots as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"carteira/internal/analytics"
	"carteira/internal/report"
)

// ErrNoData is returned when a month has nothing to draw.
var ErrNoData = errors.New("no data to chart")

var (
	barColor  = drawing.ColorFromHex("6366f1")
	peakColor = drawing.ColorFromHex("ef4444")

	slicePalette = []drawing.Color{
		drawing.ColorFromHex("6366f1"),
		drawing.ColorFromHex("22c55e"),
		drawing.ColorFromHex("f59e0b"),
		drawing.ColorFromHex("ef4444"),
		drawing.ColorFromHex("06b6d4"),
		drawing.ColorFromHex("a855f7"),
		drawing.ColorFromHex("ec4899"),
		drawing.ColorFromHex("84cc16"),
		drawing.ColorFromHex("64748b"),
	}
)

type Renderer struct {
	locale report.Locale
	width  int
	height int
}

func NewRenderer(locale report.Locale) *Renderer {
	return &Renderer{locale: locale, width: 1000, height: 500}
}

func (r *Renderer) background() chart.Style {
	return chart.Style{
		Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		FillColor: chart.ColorWhite,
	}
}

// DailySporadic draws one bar per day of sporadic spending, highlighting
// the days that hit the month's maximum.
func (r *Renderer) DailySporadic(s analytics.Snapshot) ([]byte, error) {
	if s.SporadicMax().IsZero() {
		return nil, ErrNoData
	}
	bars := make([]chart.Value, 0, len(s.DailySporadic))
	for _, d := range s.DailySporadic {
		color := barColor
		if d.IsMax {
			color = peakColor
		}
		bars = append(bars, chart.Value{
			Label: strconv.Itoa(d.Day),
			Value: d.Amount.Units(),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}

	graph := chart.BarChart{
		Title:      fmt.Sprintf("%s %d", r.locale.MonthName(int(s.Period.Month)), s.Period.Year),
		Width:      r.width,
		Height:     r.height,
		BarWidth:   20,
		BarSpacing: 6,
		Background: r.background(),
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return r.locale.Symbol + " " + strconv.FormatFloat(f, 'f', 0, 64)
				}
				return ""
			},
		},
		Bars: bars,
	}
	return render(graph)
}

// Categories draws the share of each expense category.
func (r *Renderer) Categories(s analytics.Snapshot) ([]byte, error) {
	values := make([]chart.Value, 0, len(s.Categories))
	for i, c := range s.Categories {
		if c.Amount.IsZero() {
			continue
		}
		color := slicePalette[i%len(slicePalette)]
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %s", c.Category, r.locale.Percent(c.Percentage)),
			Value: c.Amount.Units(),
			Style: chart.Style{FillColor: color},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Width:      r.height,
		Height:     r.height,
		Values:     values,
		Background: r.background(),
	}
	return render(pie)
}

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func render(g renderable) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
