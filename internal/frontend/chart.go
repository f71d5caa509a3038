package frontend

import (
	"math"

	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
)

// Chart geometry in SVG user units.
const (
	chartWidth   = 640.0
	labelWidth   = 210.0
	valueWidth   = 60.0
	barHeight    = 22.0
	barGap       = 8.0
	chartPadding = 12.0

	colorUp   = "#d62728"
	colorDown = "#1f77b4"
)

// DefaultChartBars is how many contributors the dashboard draws.
const DefaultChartBars = 10

// Bar is one contributor laid out for the attribution chart.
type Bar struct {
	Label        string
	Contribution float64
	Up           bool
	Fill         string
	X, Y, W, H   float64
	LabelX       float64
	ValueX       float64
	TextY        float64
}

// Chart is a diverging bar chart around a zero axis. Bars right of the axis
// pushed the risk up, bars left of it pushed it down.
type Chart struct {
	Width    float64
	Height   float64
	AxisX    float64
	Baseline float64
	Bars     []Bar
	Omitted  int
}

// BuildChart lays out the largest non-zero contributors of exp. It returns
// nil when there is nothing to draw.
func BuildChart(exp *analysis.Explanation, topN int) *Chart {
	if exp == nil || topN <= 0 {
		return nil
	}

	nonZero := make([]analysis.Contributor, 0, len(exp.Contributors))
	for _, c := range exp.Contributors {
		if c.Contribution != 0 {
			nonZero = append(nonZero, c)
		}
	}
	if len(nonZero) == 0 {
		return nil
	}

	shown := nonZero
	if len(shown) > topN {
		shown = shown[:topN]
	}

	maxAbs := 0.0
	for _, c := range shown {
		maxAbs = math.Max(maxAbs, math.Abs(c.Contribution))
	}

	plotLeft := labelWidth
	plotRight := chartWidth - valueWidth
	half := (plotRight - plotLeft) / 2
	axis := plotLeft + half

	ch := &Chart{
		Width:    chartWidth,
		Height:   chartPadding*2 + float64(len(shown))*(barHeight+barGap) - barGap,
		AxisX:    axis,
		Baseline: exp.Baseline,
		Omitted:  len(nonZero) - len(shown),
	}

	for i, c := range shown {
		w := math.Abs(c.Contribution) / maxAbs * half
		y := chartPadding + float64(i)*(barHeight+barGap)

		bar := Bar{
			Label:        c.Name,
			Contribution: c.Contribution,
			Up:           c.Contribution > 0,
			W:            w,
			Y:            y,
			H:            barHeight,
			LabelX:       plotLeft - 8,
			TextY:        y + barHeight*0.7,
		}
		if bar.Up {
			bar.X = axis
			bar.Fill = colorUp
			bar.ValueX = axis + w + 4
		} else {
			bar.X = axis - w
			bar.Fill = colorDown
			bar.ValueX = axis + 4
		}
		ch.Bars = append(ch.Bars, bar)
	}

	return ch
}
