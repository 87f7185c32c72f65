// Package impact computes the volume-weighted "calls saved" metric: how
// many calls a practice's missed-call rate saves (or costs) relative to a
// reference rate, scaled by its own call volume.
package impact

import (
	"sort"

	"gppulse/domain/analysis"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

// CallsSaved is (referenceRate - practiceRate) * inbound, with rates as
// fractions. Positive means the practice outperforms the reference; the
// volume factor weights large practices more than small ones at an equal
// percentage-point gap.
func CallsSaved(missed, inbound int, referenceRate float64) float64 {
	if inbound == 0 {
		return 0
	}
	practiceRate := float64(missed) / float64(inbound)
	return (referenceRate - practiceRate) * float64(inbound)
}

// Score computes the impact result for one record against a reference rate.
// Records without telephony data, or with zero inbound volume, have no
// defined rate and return ErrUndefinedMetric.
func Score(rec *metrics.PracticeMetricRecord, referenceRate float64) (analysis.ImpactResult, error) {
	missed, inbound, err := callCounts(rec)
	if err != nil {
		return analysis.ImpactResult{}, err
	}
	return analysis.ImpactResult{
		ODSCode:      rec.ODSCode,
		Name:         rec.Name,
		CallsSaved:   CallsSaved(missed, inbound, referenceRate),
		PracticeRate: float64(missed) / float64(inbound),
		Volume:       inbound,
	}, nil
}

// NationalRate returns the pooled missed-call rate across the population:
// total missed over total inbound. Pooling the raw counts (rather than
// averaging per-practice rates) keeps differently-sized practices from
// distorting the reference.
func NationalRate(population []*metrics.PracticeMetricRecord) (float64, error) {
	var missed, inbound int
	for _, rec := range population {
		m, in, err := callCounts(rec)
		if err != nil {
			continue
		}
		missed += m
		inbound += in
	}
	if inbound == 0 {
		return 0, core.ErrInsufficientData
	}
	return float64(missed) / float64(inbound), nil
}

// RankByImpact scores every eligible record and sorts descending by calls
// saved. Higher impact is always better regardless of the underlying
// rate's own direction - the sign already encodes out/under-performance.
// Tied scores keep input order.
func RankByImpact(population []*metrics.PracticeMetricRecord, referenceRate float64) []analysis.ImpactResult {
	var results []analysis.ImpactResult
	for _, rec := range population {
		res, err := Score(rec, referenceRate)
		if err != nil {
			continue
		}
		results = append(results, res)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CallsSaved > results[j].CallsSaved
	})
	return results
}

// GroupImpact pools the raw counts of every member practice into one group
// rate and one group impact. Summing counts first - never averaging the
// members' per-practice impacts - avoids Simpson's-paradox distortion from
// averaging ratios of differently-sized practices.
func GroupImpact(members []*metrics.PracticeMetricRecord, groupID string, referenceRate float64) (analysis.ImpactResult, error) {
	var missed, inbound int
	for _, rec := range members {
		m, in, err := callCounts(rec)
		if err != nil {
			continue
		}
		missed += m
		inbound += in
	}
	if inbound == 0 {
		return analysis.ImpactResult{}, core.ErrInsufficientData
	}
	return analysis.ImpactResult{
		ODSCode:      core.ODSCode(groupID),
		Name:         groupID,
		CallsSaved:   CallsSaved(missed, inbound, referenceRate),
		PracticeRate: float64(missed) / float64(inbound),
		Volume:       inbound,
	}, nil
}

func callCounts(rec *metrics.PracticeMetricRecord) (missed, inbound int, err error) {
	if !rec.HasTelephonyData {
		return 0, 0, core.NewMissingInputError(rec.ODSCode.String(), rec.Period.String(), "telephony")
	}
	in, ok := rec.Metric(metrics.MetricCallsInbound)
	if !ok || in == 0 {
		return 0, 0, core.NewUndefinedMetricError(metrics.MetricMissedCallPct.String(), rec.ODSCode.String())
	}
	m, _ := rec.Metric(metrics.MetricCallsMissed)
	return int(m), int(in), nil
}
