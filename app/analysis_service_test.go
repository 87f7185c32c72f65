package app

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gppulse/domain/analysis"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
	"gppulse/internal/testkit"
)

func testService(t *testing.T) (*AnalysisService, *metrics.Dataset) {
	t.Helper()
	kit := testkit.New(42)
	ds := kit.Dataset(8, testkit.DefaultPeriods())
	require.NotZero(t, ds.Len())
	return NewAnalysisService(metrics.DefaultRegistry()), ds
}

func TestBuildPracticeReport(t *testing.T) {
	svc, ds := testService(t)
	practices := ds.Practices()
	require.NotEmpty(t, practices)
	period := core.NewPeriod(2024, time.March)

	report, err := svc.BuildPracticeReport(context.Background(), ds, practices[0], period)
	require.NoError(t, err)

	assert.Equal(t, practices[0], report.ODSCode)
	assert.Equal(t, period, report.Period)
	assert.Equal(t, ds.Fingerprint(), report.Fingerprint)
	assert.NotEmpty(t, report.Rankings, "rankable metrics should produce rankings")
	assert.NotEmpty(t, report.Consistency, "six periods exceed every minimum")

	// Every practice in the generated dataset has telephony data
	require.NotNil(t, report.Impact)
	assert.Equal(t, practices[0], report.Impact.ODSCode)
}

func TestBuildPracticeReportRankingsCoherent(t *testing.T) {
	svc, ds := testService(t)
	period := core.NewPeriod(2024, time.March)

	report, err := svc.BuildPracticeReport(context.Background(), ds, ds.Practices()[0], period)
	require.NoError(t, err)

	national := ds.Period(period)
	for key, scopes := range report.Rankings {
		res, ok := scopes[analysis.ScopeNational]
		if !ok {
			continue
		}
		assert.Equal(t, key, res.Metric)
		assert.GreaterOrEqual(t, res.Rank, 1)
		assert.LessOrEqual(t, res.Rank, res.Size)
		assert.LessOrEqual(t, res.Size, len(national))

		// Narrower scopes never hold a larger cohort than national
		if pcn, ok := scopes[analysis.ScopePCN]; ok {
			assert.LessOrEqual(t, pcn.Size, res.Size)
		}
		if icb, ok := scopes[analysis.ScopeICB]; ok {
			assert.LessOrEqual(t, icb.Size, res.Size)
		}
	}
}

func TestBuildPracticeReportUnknownPractice(t *testing.T) {
	svc, ds := testService(t)

	_, err := svc.BuildPracticeReport(context.Background(), ds, core.ODSCode("Z99999"), core.NewPeriod(2024, time.March))
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err))
}

func TestBuildPracticeReportCancelledContext(t *testing.T) {
	svc, ds := testService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.BuildPracticeReport(ctx, ds, ds.Practices()[0], core.NewPeriod(2024, time.March))
	require.Error(t, err)
}

func TestBuildNetworkOverview(t *testing.T) {
	svc, ds := testService(t)

	overview, err := svc.BuildNetworkOverview(context.Background(), ds, metrics.MetricApptsPerDay, core.PeriodWindow{})
	require.NoError(t, err)

	assert.Equal(t, len(ds.Practices()), overview.Statistic.SampleSize)
	assert.Equal(t, len(ds.Practices()), len(overview.Flags))
	assert.Greater(t, overview.Statistic.Mean, 0.0)

	flagged := 0
	for _, flag := range overview.Flags {
		if flag.IsOutlier {
			flagged++
			assert.Greater(t, math.Abs(flag.ZScore), svc.outlierThreshold)
		}
	}
	assert.Less(t, flagged, len(overview.Flags), "not every practice can be an outlier")
}

func TestBuildNetworkOverviewUnknownMetric(t *testing.T) {
	svc, ds := testService(t)

	_, err := svc.BuildNetworkOverview(context.Background(), ds, metrics.MetricKey("nope"), core.PeriodWindow{})
	require.Error(t, err)
}

func TestLeaderboards(t *testing.T) {
	svc, ds := testService(t)

	consistent, volatile, err := svc.Leaderboards(ds, metrics.MetricApptsPerDay, 3)
	require.NoError(t, err)
	require.Len(t, consistent, 3)
	require.Len(t, volatile, 3)

	assert.LessOrEqual(t, consistent[0].StdDev, consistent[1].StdDev)
	assert.GreaterOrEqual(t, volatile[0].StdDev, volatile[1].StdDev)
}

func TestImpactRanking(t *testing.T) {
	svc, ds := testService(t)
	period := core.NewPeriod(2024, time.March)

	ranked, groups, err := svc.ImpactRanking(ds, period)
	require.NoError(t, err)
	require.NotEmpty(t, ranked)
	require.NotEmpty(t, groups)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].CallsSaved, ranked[i].CallsSaved)
	}

	// Group impacts pool raw counts; every generated practice carries a PCN
	totalMembers := 0
	byPCN := make(map[core.PCNID]int)
	for _, rec := range ds.Period(period) {
		byPCN[rec.PCN]++
		totalMembers++
	}
	assert.Equal(t, len(byPCN), len(groups))
	assert.Equal(t, totalMembers, len(ranked))
}

func TestServiceOptions(t *testing.T) {
	svc := NewAnalysisService(metrics.DefaultRegistry(),
		WithMaxParallel(2),
		WithForecastHorizon(6),
		WithOutlierThreshold(2.0),
	)
	assert.Equal(t, int64(2), svc.maxParallel)
	assert.Equal(t, 6, svc.forecastHorizon)
	assert.Equal(t, 2.0, svc.outlierThreshold)

	// Non-positive values keep the defaults
	svc = NewAnalysisService(metrics.DefaultRegistry(), WithMaxParallel(0), WithOutlierThreshold(-1))
	assert.Equal(t, int64(8), svc.maxParallel)
	assert.Equal(t, 1.5, svc.outlierThreshold)
}
