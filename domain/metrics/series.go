package metrics

import (
	"sort"

	"gppulse/domain/core"
)

// SeriesPoint is one period's value of one metric
type SeriesPoint struct {
	Period core.Period `json:"period"`
	Value  float64     `json:"value"`
}

// MetricSeries is the period-ordered sequence of one metric's values for one
// practice. Periods with no defined value are absent, not zero.
type MetricSeries struct {
	ODSCode core.ODSCode  `json:"ods_code"`
	Metric  MetricKey     `json:"metric"`
	Points  []SeriesPoint `json:"points"`
}

// Len returns the number of periods with a defined value
func (s MetricSeries) Len() int { return len(s.Points) }

// Values returns the values in period order
func (s MetricSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// AllZero reports whether every value in the series is zero. Used to keep
// inactive practices off "most consistent" leaderboards.
func (s MetricSeries) AllZero() bool {
	if len(s.Points) == 0 {
		return true
	}
	for _, p := range s.Points {
		if p.Value != 0 {
			return false
		}
	}
	return true
}

// InWindow returns the sub-series whose periods fall inside w
func (s MetricSeries) InWindow(w core.PeriodWindow) MetricSeries {
	out := MetricSeries{ODSCode: s.ODSCode, Metric: s.Metric}
	for _, p := range s.Points {
		if w.Contains(p.Period) {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// Dataset is the immutable, caller-owned record set an analysis call runs
// over. It replaces any process-wide "all periods loaded" cache: the caller
// materializes the records, builds a Dataset, and passes it in.
//
// When multiple extractions exist for the same (practice, period) the most
// recently extracted record wins; earlier ones are superseded, not mutated.
type Dataset struct {
	records    []*PracticeMetricRecord
	byPractice map[core.ODSCode][]*PracticeMetricRecord
	byPeriod   map[core.Period][]*PracticeMetricRecord
	periods    []core.Period

	fingerprint core.DatasetFingerprint
}

// NewDataset indexes records into a Dataset, applying supersede semantics
// and preserving the input order of records within each period.
func NewDataset(records []*PracticeMetricRecord) *Dataset {
	type slot struct {
		rec   *PracticeMetricRecord
		order int
	}
	latest := make(map[string]slot, len(records))
	for i, rec := range records {
		if rec == nil {
			continue
		}
		key := rec.ODSCode.String() + "|" + rec.Period.String()
		if existing, ok := latest[key]; ok {
			if rec.ExtractedAt.Before(existing.rec.ExtractedAt) {
				continue
			}
		}
		latest[key] = slot{rec: rec, order: i}
	}

	kept := make([]slot, 0, len(latest))
	for _, s := range latest {
		kept = append(kept, s)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].order < kept[j].order })

	ds := &Dataset{
		byPractice: make(map[core.ODSCode][]*PracticeMetricRecord),
		byPeriod:   make(map[core.Period][]*PracticeMetricRecord),
	}
	keys := make([]string, 0, len(kept))
	seenPeriods := make(map[core.Period]bool)
	for _, s := range kept {
		rec := s.rec
		ds.records = append(ds.records, rec)
		ds.byPractice[rec.ODSCode] = append(ds.byPractice[rec.ODSCode], rec)
		ds.byPeriod[rec.Period] = append(ds.byPeriod[rec.Period], rec)
		if !seenPeriods[rec.Period] {
			seenPeriods[rec.Period] = true
			ds.periods = append(ds.periods, rec.Period)
		}
		keys = append(keys, rec.Key())
	}
	core.SortPeriods(ds.periods)
	for _, recs := range ds.byPractice {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Period.Before(recs[j].Period) })
	}
	ds.fingerprint = core.ComputeDatasetFingerprint(keys)
	return ds
}

// Records returns all records in input order
func (d *Dataset) Records() []*PracticeMetricRecord { return d.records }

// Len returns the record count
func (d *Dataset) Len() int { return len(d.records) }

// Periods returns the distinct periods present, oldest first
func (d *Dataset) Periods() []core.Period { return d.periods }

// Fingerprint identifies the exact record set
func (d *Dataset) Fingerprint() core.DatasetFingerprint { return d.fingerprint }

// Period returns the cross-section of records for one period, in input order
func (d *Dataset) Period(p core.Period) []*PracticeMetricRecord {
	return d.byPeriod[p]
}

// Practice returns one practice's records ordered by period
func (d *Dataset) Practice(ods core.ODSCode) []*PracticeMetricRecord {
	return d.byPractice[ods]
}

// Record returns the record for one practice and period
func (d *Dataset) Record(ods core.ODSCode, p core.Period) (*PracticeMetricRecord, error) {
	for _, rec := range d.byPractice[ods] {
		if rec.Period == p {
			return rec, nil
		}
	}
	return nil, core.ErrRecordNotFound
}

// Practices returns the distinct practice codes, in first-seen order
func (d *Dataset) Practices() []core.ODSCode {
	seen := make(map[core.ODSCode]bool, len(d.byPractice))
	var out []core.ODSCode
	for _, rec := range d.records {
		if !seen[rec.ODSCode] {
			seen[rec.ODSCode] = true
			out = append(out, rec.ODSCode)
		}
	}
	return out
}

// Series builds the metric series for one practice: one point per period
// where the metric is defined, gaps for everything else.
func (d *Dataset) Series(ods core.ODSCode, metric MetricKey) MetricSeries {
	s := MetricSeries{ODSCode: ods, Metric: metric}
	for _, rec := range d.byPractice[ods] {
		if v, ok := rec.Metric(metric); ok {
			s.Points = append(s.Points, SeriesPoint{Period: rec.Period, Value: v})
		}
	}
	return s
}
