// Package forecast fits an ordinary least-squares trend to a metric series
// and projects it a short horizon forward.
package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"gppulse/domain/analysis"
	"gppulse/domain/metrics"
)

// MinPoints is the minimum series length for a fit. Below it the result is
// a typed insufficient-data value, never a low-confidence number.
const MinPoints = 3

// trendTolerance is the fixed relative-magnitude threshold for the trend
// label: a slope whose absolute value is below 5% of the series' mean
// absolute value is "stable". One constant for every metric, so noise-level
// slopes never flip the label between adjacent runs.
const trendTolerance = 0.05

// Forecast fits y = slope*x + intercept over (periodIndex, value) pairs and
// projects the next horizon values. The period index increments only for
// periods that actually carry a value - gaps are skipped, not interpolated -
// so the series' own point order defines the x axis.
func Forecast(series metrics.MetricSeries, horizon int) analysis.ForecastResult {
	if series.Len() < MinPoints {
		return analysis.ForecastResult{Metric: series.Metric, Sufficient: false}
	}

	values := series.Values()
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	intercept, slope := stat.LinearRegression(xs, values, nil, false)
	r2 := rSquared(xs, values, intercept, slope)

	projected := make([]float64, 0, horizon)
	for i := 0; i < horizon; i++ {
		idx := float64(len(values) + i)
		projected = append(projected, slope*idx+intercept)
	}

	return analysis.ForecastResult{
		Metric:     series.Metric,
		Sufficient: true,
		Slope:      slope,
		Intercept:  intercept,
		RSquared:   r2,
		Trend:      classifyTrend(slope, values),
		Projected:  projected,
	}
}

// rSquared wraps gonum's coefficient of determination with a guard for
// constant series, where total variance is zero and the plain formula is
// undefined. A zero-slope fit through a constant series is a perfect fit.
func rSquared(xs, values []float64, intercept, slope float64) float64 {
	constant := true
	for _, v := range values[1:] {
		if v != values[0] {
			constant = false
			break
		}
	}
	if constant {
		return 1
	}
	r2 := stat.RSquared(xs, values, nil, intercept, slope)
	if math.IsNaN(r2) {
		return 0
	}
	return r2
}

func classifyTrend(slope float64, values []float64) analysis.TrendLabel {
	meanAbs := 0.0
	for _, v := range values {
		meanAbs += math.Abs(v)
	}
	meanAbs /= float64(len(values))

	if math.Abs(slope) <= trendTolerance*meanAbs {
		return analysis.TrendStable
	}
	if slope > 0 {
		return analysis.TrendIncreasing
	}
	return analysis.TrendDecreasing
}
