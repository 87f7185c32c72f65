// Package app orchestrates the analytical components into whole-practice
// reports. The components themselves are pure; this layer owns the fan-out
// and the dataset lifecycle.
package app

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"gppulse/analytics/consistency"
	"gppulse/analytics/forecast"
	"gppulse/analytics/impact"
	"gppulse/analytics/network"
	"gppulse/analytics/ranking"
	"gppulse/domain/analysis"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
	"gppulse/internal"
)

// PracticeReport bundles every analysis for one practice in one period:
// rankings across the three scopes, consistency and forecast per metric,
// the impact score and network outlier flags. All fields are plain data
// ready for a rendering or prompt-building layer.
type PracticeReport struct {
	ODSCode     core.ODSCode                `json:"ods_code"`
	Name        string                      `json:"name"`
	Period      core.Period                 `json:"period"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Fingerprint core.DatasetFingerprint     `json:"dataset_fingerprint"`

	Rankings    map[metrics.MetricKey]map[analysis.Scope]analysis.RankingResult `json:"rankings"`
	Consistency map[metrics.MetricKey]analysis.ConsistencyProfile               `json:"consistency"`
	Forecasts   map[metrics.MetricKey]analysis.ForecastResult                   `json:"forecasts"`
	Outliers    map[metrics.MetricKey]analysis.OutlierFlag                      `json:"outliers"`

	Impact *analysis.ImpactResult `json:"impact,omitempty"`
}

// NetworkOverview is the network-wide view for one metric: the population
// statistic plus each practice's outlier flag against it.
type NetworkOverview struct {
	Statistic analysis.NetworkStatistic              `json:"statistic"`
	Flags     map[core.ODSCode]analysis.OutlierFlag  `json:"flags"`
}

// AnalysisService runs the analytical components over a caller-supplied
// immutable dataset. Every computation is pure and idempotent, so the
// per-metric fan-out needs no coordination beyond a bound on parallelism.
type AnalysisService struct {
	registry         *metrics.Registry
	log              *internal.Logger
	maxParallel      int64
	forecastHorizon  int
	outlierThreshold float64
}

// Option tunes an AnalysisService
type Option func(*AnalysisService)

// WithMaxParallel bounds the per-metric fan-out
func WithMaxParallel(n int) Option {
	return func(s *AnalysisService) {
		if n > 0 {
			s.maxParallel = int64(n)
		}
	}
}

// WithForecastHorizon sets how many periods ahead reports project
func WithForecastHorizon(n int) Option {
	return func(s *AnalysisService) {
		if n > 0 {
			s.forecastHorizon = n
		}
	}
}

// WithOutlierThreshold sets the |z| outlier threshold
func WithOutlierThreshold(t float64) Option {
	return func(s *AnalysisService) {
		if t > 0 {
			s.outlierThreshold = t
		}
	}
}

// NewAnalysisService creates a service over the given metric registry
func NewAnalysisService(registry *metrics.Registry, opts ...Option) *AnalysisService {
	s := &AnalysisService{
		registry:         registry,
		log:              internal.DefaultLogger,
		maxParallel:      8,
		forecastHorizon:  3,
		outlierThreshold: network.DefaultOutlierThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the metric registry the service analyzes with
func (s *AnalysisService) Registry() *metrics.Registry { return s.registry }

// BuildPracticeReport computes the full report for one practice and period.
// Each rankable metric is analyzed independently under a weighted semaphore;
// the dataset is read-only throughout, so goroutines share it freely.
func (s *AnalysisService) BuildPracticeReport(ctx context.Context, ds *metrics.Dataset, ods core.ODSCode, period core.Period) (*PracticeReport, error) {
	target, err := ds.Record(ods, period)
	if err != nil {
		return nil, err
	}
	crossSection := ds.Period(period)
	window := core.PeriodWindow{} // full history

	report := &PracticeReport{
		ODSCode:     ods,
		Name:        target.Name,
		Period:      period,
		GeneratedAt: time.Now().UTC(),
		Fingerprint: ds.Fingerprint(),
		Rankings:    make(map[metrics.MetricKey]map[analysis.Scope]analysis.RankingResult),
		Consistency: make(map[metrics.MetricKey]analysis.ConsistencyProfile),
		Forecasts:   make(map[metrics.MetricKey]analysis.ForecastResult),
		Outliers:    make(map[metrics.MetricKey]analysis.OutlierFlag),
	}

	sem := semaphore.NewWeighted(s.maxParallel)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, key := range s.registry.Rankable() {
		def, defErr := s.registry.Lookup(key)
		if defErr != nil {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(def metrics.MetricDefinition) {
			defer sem.Release(1)
			defer wg.Done()
			s.analyzeMetric(ds, target, crossSection, window, def, report, &mu)
		}(def)
	}
	wg.Wait()

	if target.HasTelephonyData {
		if rate, rateErr := impact.NationalRate(crossSection); rateErr == nil {
			if res, scoreErr := impact.Score(target, rate); scoreErr == nil {
				report.Impact = &res
			}
		}
	}

	return report, nil
}

// analyzeMetric fills one metric's slice of the report. Undefined metrics
// and short series are skipped silently - exclusion, not failure, is the
// contract for partial data.
func (s *AnalysisService) analyzeMetric(ds *metrics.Dataset, target *metrics.PracticeMetricRecord, crossSection []*metrics.PracticeMetricRecord, window core.PeriodWindow, def metrics.MetricDefinition, report *PracticeReport, mu *sync.Mutex) {
	scopes := make(map[analysis.Scope]analysis.RankingResult)
	for _, scope := range []analysis.Scope{analysis.ScopeNational, analysis.ScopeICB, analysis.ScopePCN} {
		res, err := ranking.Rank(target, crossSection, def, scope)
		if err != nil {
			continue
		}
		scopes[scope] = res
	}

	series := ds.Series(target.ODSCode, def.Key)
	profile, profileErr := consistency.Analyze(series, def)
	fc := forecast.Forecast(series, s.forecastHorizon)

	var flag *analysis.OutlierFlag
	if value, ok := target.Metric(def.Key); ok {
		if stat, err := network.Averages(ds, def.Key, window); err == nil {
			f := network.IsOutlier(value, stat, s.outlierThreshold)
			flag = &f
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(scopes) > 0 {
		report.Rankings[def.Key] = scopes
	}
	if profileErr == nil {
		report.Consistency[def.Key] = profile
	}
	if fc.Sufficient {
		report.Forecasts[def.Key] = fc
	}
	if flag != nil {
		report.Outliers[def.Key] = *flag
	}
}

// BuildNetworkOverview computes the network statistic for one metric over a
// window and flags every practice against it using the practice's own
// in-window mean.
func (s *AnalysisService) BuildNetworkOverview(ctx context.Context, ds *metrics.Dataset, key metrics.MetricKey, window core.PeriodWindow) (*NetworkOverview, error) {
	if _, err := s.registry.Lookup(key); err != nil {
		return nil, err
	}
	stat, err := network.Averages(ds, key, window)
	if err != nil {
		return nil, err
	}

	overview := &NetworkOverview{
		Statistic: stat,
		Flags:     make(map[core.ODSCode]analysis.OutlierFlag),
	}
	for _, ods := range ds.Practices() {
		series := ds.Series(ods, key).InWindow(window)
		if series.Len() == 0 {
			continue
		}
		sum := 0.0
		for _, v := range series.Values() {
			sum += v
		}
		mean := sum / float64(series.Len())
		overview.Flags[ods] = network.IsOutlier(mean, stat, s.outlierThreshold)
	}
	return overview, nil
}

// Leaderboards returns the most consistent and most volatile cohorts for
// one metric.
func (s *AnalysisService) Leaderboards(ds *metrics.Dataset, key metrics.MetricKey, topN int) (mostConsistent, mostVolatile []analysis.LeaderboardEntry, err error) {
	def, err := s.registry.Lookup(key)
	if err != nil {
		return nil, nil, err
	}
	return consistency.MostConsistent(ds, def, topN), consistency.MostVolatile(ds, def, topN), nil
}

// ImpactRanking scores every practice in the period against the pooled
// national rate and returns the descending ranking plus per-PCN pooled
// group impacts.
func (s *AnalysisService) ImpactRanking(ds *metrics.Dataset, period core.Period) ([]analysis.ImpactResult, map[core.PCNID]analysis.ImpactResult, error) {
	crossSection := ds.Period(period)
	rate, err := impact.NationalRate(crossSection)
	if err != nil {
		return nil, nil, err
	}

	ranked := impact.RankByImpact(crossSection, rate)

	byPCN := make(map[core.PCNID][]*metrics.PracticeMetricRecord)
	for _, rec := range crossSection {
		if rec.PCN != "" {
			byPCN[rec.PCN] = append(byPCN[rec.PCN], rec)
		}
	}
	groups := make(map[core.PCNID]analysis.ImpactResult, len(byPCN))
	for pcn, members := range byPCN {
		group, groupErr := impact.GroupImpact(members, pcn.String(), rate)
		if groupErr != nil {
			continue
		}
		groups[pcn] = group
	}
	return ranked, groups, nil
}
