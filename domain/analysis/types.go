// Package analysis defines the plain, serializable result types the
// analytics components hand to downstream consumers (report rendering,
// chart layers, prompt builders). None of them carry behavior; all are
// computed on demand and live for a single analysis call.
package analysis

import (
	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

// Scope selects the peer population for a cross-sectional ranking
type Scope string

const (
	ScopeNational Scope = "national"
	ScopeICB      Scope = "icb"
	ScopePCN      Scope = "pcn"
)

// RankingResult places one practice within a scoped peer population for one
// metric. Rank is 1-based; Percentile is rank/size*100 rounded to one
// decimal (a rank-based position, not a statistical quantile).
type RankingResult struct {
	Metric     metrics.MetricKey `json:"metric"`
	Scope      Scope             `json:"scope"`
	Rank       int               `json:"rank"`
	Size       int               `json:"size"`
	Percentile float64           `json:"percentile"`
}

// ConsistencyProfile summarizes how stable one practice's metric series is.
// StdDev uses the population formula (divide by N). Score is bounded to
// [0,100]: 100 means perfectly steady, 0 means dispersion beyond the
// metric's calibrated scale.
type ConsistencyProfile struct {
	Metric  metrics.MetricKey `json:"metric"`
	Periods int               `json:"periods"`
	Mean    float64           `json:"mean"`
	StdDev  float64           `json:"std_dev"`
	Range   float64           `json:"range"`
	Score   float64           `json:"score"`
}

// LeaderboardEntry is one row of a consistency leaderboard
type LeaderboardEntry struct {
	ODSCode core.ODSCode `json:"ods_code"`
	Name    string       `json:"name"`
	StdDev  float64      `json:"std_dev"`
	Score   float64      `json:"score"`
}

// TrendLabel classifies a fitted slope
type TrendLabel string

const (
	TrendIncreasing TrendLabel = "increasing"
	TrendDecreasing TrendLabel = "decreasing"
	TrendStable     TrendLabel = "stable"
)

// ForecastResult is the outcome of a least-squares trend fit. When
// Sufficient is false the series was too short and every numeric field is
// zero-valued; callers must check the flag before rendering numbers.
type ForecastResult struct {
	Metric     metrics.MetricKey `json:"metric"`
	Sufficient bool              `json:"sufficient"`
	Slope      float64           `json:"slope"`
	Intercept  float64           `json:"intercept"`
	RSquared   float64           `json:"r_squared"`
	Trend      TrendLabel        `json:"trend,omitempty"`
	Projected  []float64         `json:"projected,omitempty"`
}

// ImpactResult is the volume-weighted impact of one practice (or one pooled
// group) against a reference rate: (referenceRate - practiceRate) * volume.
// Positive means the practice outperforms the reference.
type ImpactResult struct {
	ODSCode      core.ODSCode `json:"ods_code"`
	Name         string       `json:"name"`
	CallsSaved   float64      `json:"calls_saved"`
	PracticeRate float64      `json:"practice_rate"`
	Volume       int          `json:"volume"`
}

// NetworkStatistic describes one metric across many practices over a period
// window: the mean of per-practice means, their dispersion, and extremes.
// It is deliberately an average of practice averages, not a volume-pooled
// rate - every practice counts equally.
type NetworkStatistic struct {
	Metric     metrics.MetricKey `json:"metric"`
	Window     core.PeriodWindow `json:"window"`
	Mean       float64           `json:"mean"`
	StdDev     float64           `json:"std_dev"`
	Min        float64           `json:"min"`
	Max        float64           `json:"max"`
	SampleSize int               `json:"sample_size"`
}

// OutlierDirection says which side of the network mean a flagged value sits
type OutlierDirection string

const (
	OutlierAbove OutlierDirection = "above"
	OutlierBelow OutlierDirection = "below"
)

// OutlierFlag is the result of a z-score outlier check against a
// NetworkStatistic
type OutlierFlag struct {
	IsOutlier bool             `json:"is_outlier"`
	Direction OutlierDirection `json:"direction,omitempty"`
	ZScore    float64          `json:"z_score"`
}
