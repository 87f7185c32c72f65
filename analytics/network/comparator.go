// Package network computes per-metric population statistics across many
// practices over a period window and flags z-score outliers against them.
package network

import (
	"github.com/montanaflynn/stats"

	"gppulse/domain/analysis"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

// DefaultOutlierThreshold is the |z| above which a value is flagged
const DefaultOutlierThreshold = 1.5

// Averages computes the network statistic for one metric over a window.
// Each practice contributes its own mean of the in-window periods where the
// metric is defined - missing periods are excluded from that mean, never
// treated as zero - and the statistic is taken across those per-practice
// means. This is deliberately an average of practice averages: every
// practice counts equally, describing what a typical practice looks like.
// (The impact scorer makes the opposite choice and pools raw counts,
// because there the question is total system effect, where volume matters.)
func Averages(ds *metrics.Dataset, metric metrics.MetricKey, window core.PeriodWindow) (analysis.NetworkStatistic, error) {
	var means []float64
	for _, ods := range ds.Practices() {
		series := ds.Series(ods, metric).InWindow(window)
		if series.Len() == 0 {
			continue
		}
		mean, err := stats.Mean(series.Values())
		if err != nil {
			continue
		}
		means = append(means, mean)
	}
	if len(means) == 0 {
		return analysis.NetworkStatistic{}, core.NewInsufficientDataError(metric.String(), 0, 1)
	}

	mean, _ := stats.Mean(means)
	stdDev, _ := stats.StandardDeviationPopulation(means)
	min, _ := stats.Min(means)
	max, _ := stats.Max(means)

	return analysis.NetworkStatistic{
		Metric:     metric,
		Window:     window,
		Mean:       mean,
		StdDev:     stdDev,
		Min:        min,
		Max:        max,
		SampleSize: len(means),
	}, nil
}

// IsOutlier flags a value whose z-score against the network statistic
// exceeds the threshold. When the network has zero dispersion nothing is
// ever flagged.
func IsOutlier(value float64, stat analysis.NetworkStatistic, threshold float64) analysis.OutlierFlag {
	if stat.StdDev == 0 {
		return analysis.OutlierFlag{}
	}
	z := (value - stat.Mean) / stat.StdDev
	flag := analysis.OutlierFlag{ZScore: z}
	if z > threshold {
		flag.IsOutlier = true
		flag.Direction = analysis.OutlierAbove
	} else if z < -threshold {
		flag.IsOutlier = true
		flag.Direction = analysis.OutlierBelow
	}
	return flag
}
