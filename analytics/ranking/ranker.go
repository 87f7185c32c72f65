// Package ranking places a single practice-period record within a scoped
// peer population for one metric.
package ranking

import (
	"math"
	"sort"

	"gppulse/domain/analysis"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

// ScopeFilter narrows a cross-sectional population to the target's peers:
// national keeps everything, ICB keeps practices sharing the regional id,
// PCN keeps practices sharing the network id. Input order is preserved.
func ScopeFilter(population []*metrics.PracticeMetricRecord, target *metrics.PracticeMetricRecord, scope analysis.Scope) []*metrics.PracticeMetricRecord {
	switch scope {
	case analysis.ScopeICB:
		return filter(population, func(r *metrics.PracticeMetricRecord) bool { return r.ICB == target.ICB })
	case analysis.ScopePCN:
		return filter(population, func(r *metrics.PracticeMetricRecord) bool { return r.PCN == target.PCN })
	default:
		return population
	}
}

func filter(records []*metrics.PracticeMetricRecord, keep func(*metrics.PracticeMetricRecord) bool) []*metrics.PracticeMetricRecord {
	var out []*metrics.PracticeMetricRecord
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Rank computes the target's 1-based position within the population for the
// given metric definition. Records with no defined value for the metric are
// excluded from the population before ranking; ties keep stable input order
// rather than sharing a rank.
func Rank(target *metrics.PracticeMetricRecord, population []*metrics.PracticeMetricRecord, def metrics.MetricDefinition, scope analysis.Scope) (analysis.RankingResult, error) {
	if _, ok := target.Metric(def.Key); !ok {
		return analysis.RankingResult{}, core.NewUndefinedMetricError(def.Key.String(), target.ODSCode.String())
	}

	scoped := ScopeFilter(population, target, scope)
	eligible := filter(scoped, func(r *metrics.PracticeMetricRecord) bool { return r.HasMetric(def.Key) })
	if len(eligible) == 0 {
		return analysis.RankingResult{}, core.ErrEmptyPopulation
	}

	ordered := Order(eligible, def)

	rank := 0
	for i, r := range ordered {
		if r.ODSCode == target.ODSCode {
			rank = i + 1
			break
		}
	}
	if rank == 0 {
		return analysis.RankingResult{}, core.ErrPracticeNotFound
	}

	size := len(ordered)
	return analysis.RankingResult{
		Metric:     def.Key,
		Scope:      scope,
		Rank:       rank,
		Size:       size,
		Percentile: roundOneDecimal(float64(rank) / float64(size) * 100),
	}, nil
}

// Order sorts records best-first for the metric's declared direction:
// ascending when lower is better, descending when higher is better. The
// sort is stable, so tied values retain input order.
func Order(records []*metrics.PracticeMetricRecord, def metrics.MetricDefinition) []*metrics.PracticeMetricRecord {
	ordered := make([]*metrics.PracticeMetricRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		vi, _ := ordered[i].Metric(def.Key)
		vj, _ := ordered[j].Metric(def.Key)
		if def.Direction == metrics.LowerIsBetter {
			return vi < vj
		}
		return vi > vj
	})
	return ordered
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
