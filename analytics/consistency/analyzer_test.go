package consistency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

var subDef = metrics.MetricDefinition{
	Key:              metrics.MetricOCPer1000,
	ConsistencyScale: 2,
	MinPeriods:       2,
}

var pctDef = metrics.MetricDefinition{
	Key:              metrics.MetricMissedCallPct,
	ConsistencyScale: 10,
	MinPeriods:       3,
}

func series(ods string, key metrics.MetricKey, values ...float64) metrics.MetricSeries {
	s := metrics.MetricSeries{ODSCode: core.ODSCode(ods), Metric: key}
	p := core.NewPeriod(2024, time.January)
	for _, v := range values {
		s.Points = append(s.Points, metrics.SeriesPoint{Period: p, Value: v})
		p = p.Next()
	}
	return s
}

func TestConstantSeriesScoresPerfect(t *testing.T) {
	profile, err := Analyze(series("A", subDef.Key, 42, 42, 42, 42), subDef)
	require.NoError(t, err)
	assert.Equal(t, 0.0, profile.StdDev)
	assert.Equal(t, 0.0, profile.Range)
	assert.Equal(t, 100.0, profile.Score)
	assert.Equal(t, 42.0, profile.Mean)
}

// Scenario B: monthly submissions [100, 110, 105, 300]
func TestVolatileSubmissionSeries(t *testing.T) {
	profile, err := Analyze(series("A", subDef.Key, 100, 110, 105, 300), subDef)
	require.NoError(t, err)

	assert.InDelta(t, 153.75, profile.Mean, 1e-9)
	// population formula: sqrt(sum(d^2)/N)
	assert.InDelta(t, 84.51, profile.StdDev, 0.01)
	assert.InDelta(t, 200.0, profile.Range, 1e-9)
	// 100 - 2*84.51 < 0, floored at 0
	assert.Equal(t, 0.0, profile.Score)
}

func TestScoreUsesPerMetricScale(t *testing.T) {
	// same dispersion, different scales, different scores
	assert.InDelta(t, 90.0, Score(5, 2), 1e-9)
	assert.InDelta(t, 50.0, Score(5, 10), 1e-9)
	assert.Equal(t, 0.0, Score(50, 10))
}

func TestMinimumSeriesLength(t *testing.T) {
	_, err := Analyze(series("A", pctDef.Key, 10, 12), pctDef)
	assert.True(t, core.IsInsufficientData(err))

	_, err = Analyze(series("A", pctDef.Key, 10, 12, 11), pctDef)
	assert.NoError(t, err)

	// the newer-source family only needs 2 periods
	_, err = Analyze(series("A", subDef.Key, 10, 12), subDef)
	assert.NoError(t, err)
}

func buildDataset(t *testing.T, perPractice map[string][]float64) *metrics.Dataset {
	t.Helper()
	var records []*metrics.PracticeMetricRecord
	for ods, values := range perPractice {
		p := core.NewPeriod(2024, time.January)
		for _, v := range values {
			records = append(records, &metrics.PracticeMetricRecord{
				ODSCode: core.ODSCode(ods),
				Name:    ods,
				Period:  p,
				Metrics: map[metrics.MetricKey]float64{subDef.Key: v},
			})
			p = p.Next()
		}
	}
	return metrics.NewDataset(records)
}

func TestLeaderboardsExcludeInactivePractices(t *testing.T) {
	ds := buildDataset(t, map[string][]float64{
		"STEADY":   {50, 50, 50},
		"WOBBLY":   {10, 90, 40},
		"INACTIVE": {0, 0, 0},
	})

	consistent := MostConsistent(ds, subDef, 10)
	require.NotEmpty(t, consistent)
	assert.Equal(t, core.ODSCode("STEADY"), consistent[0].ODSCode)
	for _, e := range consistent {
		assert.NotEqual(t, core.ODSCode("INACTIVE"), e.ODSCode, "all-zero series is only trivially consistent")
	}

	volatile := MostVolatile(ds, subDef, 10)
	require.NotEmpty(t, volatile)
	assert.Equal(t, core.ODSCode("WOBBLY"), volatile[0].ODSCode)
}

func TestLeaderboardTopN(t *testing.T) {
	ds := buildDataset(t, map[string][]float64{
		"A": {10, 11},
		"B": {10, 30},
		"C": {10, 90},
	})

	volatile := MostVolatile(ds, subDef, 2)
	require.Len(t, volatile, 2)
	assert.Equal(t, core.ODSCode("C"), volatile[0].ODSCode)
	assert.Equal(t, core.ODSCode("B"), volatile[1].ODSCode)
}

func TestLeaderboardSkipsShortSeries(t *testing.T) {
	ds := buildDataset(t, map[string][]float64{
		"LONG":  {10, 20, 30},
		"SHORT": {10},
	})

	for _, e := range MostVolatile(ds, subDef, 10) {
		assert.NotEqual(t, core.ODSCode("SHORT"), e.ODSCode)
	}
}
