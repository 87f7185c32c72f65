// Package consistency measures how stable a practice's own performance is
// across periods and builds cohort leaderboards from that dispersion.
package consistency

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"gppulse/domain/analysis"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

// Analyze computes the dispersion profile of one metric series. The series
// must carry at least the metric's minimum number of periods; below that the
// practice is excluded from scoring and ErrInsufficientData is returned.
//
// StdDev uses the population formula (divide by N, not N-1): the series is
// the practice's complete history for the window, not a sample of it.
func Analyze(series metrics.MetricSeries, def metrics.MetricDefinition) (analysis.ConsistencyProfile, error) {
	if series.Len() < def.MinPeriods {
		return analysis.ConsistencyProfile{}, core.NewInsufficientDataError(def.Key.String(), series.Len(), def.MinPeriods)
	}

	values := series.Values()
	mean, _ := stats.Mean(values)
	stdDev, _ := stats.StandardDeviationPopulation(values)
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)

	return analysis.ConsistencyProfile{
		Metric:  def.Key,
		Periods: series.Len(),
		Mean:    mean,
		StdDev:  stdDev,
		Range:   max - min,
		Score:   Score(stdDev, def.ConsistencyScale),
	}, nil
}

// Score maps a standard deviation into the bounded 0-100 consistency band:
// max(0, 100 - scale*stdDev). The scale constant lives on the metric
// definition because metrics with different natural variance need different
// slopes to land in a meaningful band.
func Score(stdDev, scale float64) float64 {
	return math.Max(0, 100-scale*stdDev)
}

// MostConsistent returns the topN practices with the lowest dispersion for
// the metric. Practices below the minimum series length are excluded, as
// are practices whose whole series is zero - an inactive practice is only
// trivially consistent.
func MostConsistent(ds *metrics.Dataset, def metrics.MetricDefinition, topN int) []analysis.LeaderboardEntry {
	entries := eligible(ds, def, func(s metrics.MetricSeries) bool { return !s.AllZero() })
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StdDev < entries[j].StdDev })
	return top(entries, topN)
}

// MostVolatile returns the topN practices with the highest dispersion.
// All-zero practices are not excluded here, but with zero dispersion they
// can never out-rank genuinely variable ones.
func MostVolatile(ds *metrics.Dataset, def metrics.MetricDefinition, topN int) []analysis.LeaderboardEntry {
	entries := eligible(ds, def, func(s metrics.MetricSeries) bool { return true })
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StdDev > entries[j].StdDev })
	return top(entries, topN)
}

func eligible(ds *metrics.Dataset, def metrics.MetricDefinition, keep func(metrics.MetricSeries) bool) []analysis.LeaderboardEntry {
	var entries []analysis.LeaderboardEntry
	for _, ods := range ds.Practices() {
		series := ds.Series(ods, def.Key)
		if series.Len() < def.MinPeriods || !keep(series) {
			continue
		}
		profile, err := Analyze(series, def)
		if err != nil {
			continue
		}
		entries = append(entries, analysis.LeaderboardEntry{
			ODSCode: ods,
			Name:    practiceName(ds, ods),
			StdDev:  profile.StdDev,
			Score:   profile.Score,
		})
	}
	return entries
}

func practiceName(ds *metrics.Dataset, ods core.ODSCode) string {
	recs := ds.Practice(ods)
	if len(recs) == 0 {
		return ""
	}
	return recs[len(recs)-1].Name
}

func top(entries []analysis.LeaderboardEntry, n int) []analysis.LeaderboardEntry {
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
