package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gppulse/domain/analysis"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

const key = metrics.MetricApptsPer1000

func buildDataset(perPractice map[string][]float64) *metrics.Dataset {
	var records []*metrics.PracticeMetricRecord
	for ods, values := range perPractice {
		p := core.NewPeriod(2024, time.January)
		for _, v := range values {
			rec := &metrics.PracticeMetricRecord{
				ODSCode: core.ODSCode(ods),
				Period:  p,
				Metrics: map[metrics.MetricKey]float64{},
			}
			if v >= 0 { // negative marks a missing period in these fixtures
				rec.Metrics[key] = v
			}
			records = append(records, rec)
			p = p.Next()
		}
	}
	return metrics.NewDataset(records)
}

func window() core.PeriodWindow {
	return core.PeriodWindow{
		From: core.NewPeriod(2024, time.January),
		To:   core.NewPeriod(2024, time.December),
	}
}

func TestAveragesIsAverageOfPracticeAverages(t *testing.T) {
	ds := buildDataset(map[string][]float64{
		"A": {10, 20}, // mean 15
		"B": {30, 50}, // mean 40
	})

	stat, err := Averages(ds, key, window())
	require.NoError(t, err)
	assert.InDelta(t, 27.5, stat.Mean, 1e-9)
	assert.InDelta(t, 15.0, stat.Min, 1e-9)
	assert.InDelta(t, 40.0, stat.Max, 1e-9)
	assert.Equal(t, 2, stat.SampleSize)
	// population stddev of {15, 40}
	assert.InDelta(t, 12.5, stat.StdDev, 1e-9)
}

func TestMissingPeriodsExcludedFromPracticeMean(t *testing.T) {
	ds := buildDataset(map[string][]float64{
		"A": {10, -1, 20}, // missing Feb: mean must be 15, not 10
	})

	stat, err := Averages(ds, key, window())
	require.NoError(t, err)
	assert.InDelta(t, 15.0, stat.Mean, 1e-9)
}

func TestWindowScopesTheSeries(t *testing.T) {
	ds := buildDataset(map[string][]float64{
		"A": {10, 20, 300}, // Jan, Feb, Mar
	})

	w := core.PeriodWindow{
		From: core.NewPeriod(2024, time.January),
		To:   core.NewPeriod(2024, time.February),
	}
	stat, err := Averages(ds, key, w)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, stat.Mean, 1e-9)
}

func TestAveragesWithNoData(t *testing.T) {
	ds := buildDataset(map[string][]float64{"A": {-1}})
	_, err := Averages(ds, key, window())
	assert.True(t, core.IsInsufficientData(err))
}

func TestIsOutlier(t *testing.T) {
	stat := analysis.NetworkStatistic{Mean: 100, StdDev: 10}

	flag := IsOutlier(120, stat, DefaultOutlierThreshold)
	assert.True(t, flag.IsOutlier)
	assert.Equal(t, analysis.OutlierAbove, flag.Direction)
	assert.InDelta(t, 2.0, flag.ZScore, 1e-9)

	flag = IsOutlier(80, stat, DefaultOutlierThreshold)
	assert.True(t, flag.IsOutlier)
	assert.Equal(t, analysis.OutlierBelow, flag.Direction)

	flag = IsOutlier(110, stat, DefaultOutlierThreshold)
	assert.False(t, flag.IsOutlier)
	assert.InDelta(t, 1.0, flag.ZScore, 1e-9)
}

// When every practice shares an identical value, stdDev is 0 and nothing is
// ever flagged.
func TestIdenticalValuesNeverFlagOutliers(t *testing.T) {
	ds := buildDataset(map[string][]float64{
		"A": {50, 50},
		"B": {50, 50},
		"C": {50, 50},
	})

	stat, err := Averages(ds, key, window())
	require.NoError(t, err)
	assert.Equal(t, 0.0, stat.StdDev)

	for _, v := range []float64{0, 50, 1e9} {
		assert.False(t, IsOutlier(v, stat, DefaultOutlierThreshold).IsOutlier)
	}
}
