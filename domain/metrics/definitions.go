package metrics

import (
	"fmt"

	"gppulse/domain/core"
)

// MetricKey names one canonical metric on a PracticeMetricRecord
type MetricKey string

// Appointment metrics
const (
	MetricApptsTotal     MetricKey = "appointments_total"
	MetricApptsPerDay    MetricKey = "appointments_per_day"
	MetricGPApptsPerDay  MetricKey = "gp_appointments_per_day"
	MetricApptsPer1000   MetricKey = "appointments_per_1000"
	MetricGPApptsPer1000 MetricKey = "gp_appointments_per_1000"
	MetricDNARatePct     MetricKey = "dna_rate_pct"
	MetricGPSharePct     MetricKey = "gp_share_pct"
)

// Telephony metrics
const (
	MetricCallsInbound   MetricKey = "calls_inbound"
	MetricCallsMissed    MetricKey = "calls_missed"
	MetricCallsPerDay    MetricKey = "calls_per_day"
	MetricCallsPer1000   MetricKey = "calls_per_1000"
	MetricMissedCallPct  MetricKey = "missed_call_pct"
	MetricCallbackPct    MetricKey = "callback_made_pct"
	MetricLongWaitPct    MetricKey = "long_wait_pct"
)

// Online consultation metrics
const (
	MetricOCTotal            MetricKey = "oc_submissions_total"
	MetricOCPerDay           MetricKey = "oc_submissions_per_day"
	MetricOCPer1000          MetricKey = "oc_submissions_per_1000"
	MetricOCClinicalSharePct MetricKey = "oc_clinical_share_pct"
)

func (k MetricKey) String() string { return string(k) }

// Direction declares which way a metric is "good". It is a first-class
// attribute of the definition so ranking and impact never infer it ad hoc.
type Direction string

const (
	HigherIsBetter Direction = "higher_is_better"
	LowerIsBetter  Direction = "lower_is_better"
)

// SourceKind identifies the upstream data source a metric family derives from.
// Minimum series lengths differ by source because the sources have run for
// different lengths of time.
type SourceKind string

const (
	SourceAppointments SourceKind = "appointments"
	SourceTelephony    SourceKind = "telephony"
	SourceOnlineCons   SourceKind = "online_consultations"
)

// MetricDefinition describes one metric: its identity, unit, ranking
// direction, consistency scoring scale and the minimum number of periods a
// series needs before consistency/forecast analysis is meaningful.
type MetricDefinition struct {
	Key              MetricKey  `json:"key"`
	Name             string     `json:"name"`
	Unit             string     `json:"unit"`
	Source           SourceKind `json:"source"`
	Direction        Direction  `json:"direction"`
	ConsistencyScale float64    `json:"consistency_scale"`
	MinPeriods       int        `json:"min_periods"`
}

// Registry holds the metric definitions in play for an analysis run.
// Scale constants and thresholds are configuration, not hard-coded call-site
// values, so a deployment can recalibrate without code changes.
type Registry struct {
	defs  map[MetricKey]MetricDefinition
	order []MetricKey
}

// NewRegistry builds a registry from explicit definitions
func NewRegistry(defs ...MetricDefinition) *Registry {
	r := &Registry{defs: make(map[MetricKey]MetricDefinition, len(defs))}
	for _, def := range defs {
		if _, exists := r.defs[def.Key]; !exists {
			r.order = append(r.order, def.Key)
		}
		r.defs[def.Key] = def
	}
	return r
}

// Lookup returns the definition for key
func (r *Registry) Lookup(key MetricKey) (MetricDefinition, error) {
	def, ok := r.defs[key]
	if !ok {
		return MetricDefinition{}, fmt.Errorf("%w: %s", core.ErrUnknownMetric, key)
	}
	return def, nil
}

// Keys returns all registered metric keys in registration order
func (r *Registry) Keys() []MetricKey {
	out := make([]MetricKey, len(r.order))
	copy(out, r.order)
	return out
}

// Rankable returns the keys of metrics that make sense to rank across
// practices (rates and percentages, not raw counts)
func (r *Registry) Rankable() []MetricKey {
	var out []MetricKey
	for _, key := range r.order {
		if r.defs[key].Unit != UnitCount {
			out = append(out, key)
		}
	}
	return out
}

// Metric units
const (
	UnitCount   = "count"
	UnitPerDay  = "per_working_day"
	UnitPer1000 = "per_1000_patients"
	UnitPercent = "percent"
)

// Minimum series lengths by source. Online consultations are the newest
// feed, so two periods already carry signal; the older feeds need three.
const (
	minPeriodsEstablished = 3
	minPeriodsNewSource   = 2
)

// Consistency scale constants. Calibrated so the typical dispersion of each
// family maps into a useful 0-100 band: percentage series swing harder than
// per-1000 rate series, so they get the steeper scale.
const (
	scaleRateSeries    = 2.0
	scalePercentSeries = 10.0
)

// DefaultRegistry returns the standard metric set
func DefaultRegistry() *Registry {
	return NewRegistry(
		MetricDefinition{Key: MetricApptsTotal, Name: "Total appointments", Unit: UnitCount, Source: SourceAppointments, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricApptsPerDay, Name: "Appointments per working day", Unit: UnitPerDay, Source: SourceAppointments, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricGPApptsPerDay, Name: "GP appointments per working day", Unit: UnitPerDay, Source: SourceAppointments, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricApptsPer1000, Name: "Appointments per 1000 patients", Unit: UnitPer1000, Source: SourceAppointments, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricGPApptsPer1000, Name: "GP appointments per 1000 patients", Unit: UnitPer1000, Source: SourceAppointments, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricDNARatePct, Name: "Did-not-attend rate", Unit: UnitPercent, Source: SourceAppointments, Direction: LowerIsBetter, ConsistencyScale: scalePercentSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricGPSharePct, Name: "GP share of appointments", Unit: UnitPercent, Source: SourceAppointments, Direction: HigherIsBetter, ConsistencyScale: scalePercentSeries, MinPeriods: minPeriodsEstablished},

		MetricDefinition{Key: MetricCallsInbound, Name: "Inbound calls", Unit: UnitCount, Source: SourceTelephony, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricCallsMissed, Name: "Missed calls", Unit: UnitCount, Source: SourceTelephony, Direction: LowerIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricCallsPerDay, Name: "Inbound calls per working day", Unit: UnitPerDay, Source: SourceTelephony, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricCallsPer1000, Name: "Inbound calls per 1000 patients", Unit: UnitPer1000, Source: SourceTelephony, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricMissedCallPct, Name: "Missed call percentage", Unit: UnitPercent, Source: SourceTelephony, Direction: LowerIsBetter, ConsistencyScale: scalePercentSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricCallbackPct, Name: "Callback completion percentage", Unit: UnitPercent, Source: SourceTelephony, Direction: HigherIsBetter, ConsistencyScale: scalePercentSeries, MinPeriods: minPeriodsEstablished},
		MetricDefinition{Key: MetricLongWaitPct, Name: "Calls waiting over 10 minutes", Unit: UnitPercent, Source: SourceTelephony, Direction: LowerIsBetter, ConsistencyScale: scalePercentSeries, MinPeriods: minPeriodsEstablished},

		MetricDefinition{Key: MetricOCTotal, Name: "Online consultation submissions", Unit: UnitCount, Source: SourceOnlineCons, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsNewSource},
		MetricDefinition{Key: MetricOCPerDay, Name: "Online submissions per working day", Unit: UnitPerDay, Source: SourceOnlineCons, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsNewSource},
		MetricDefinition{Key: MetricOCPer1000, Name: "Online submissions per 1000 patients", Unit: UnitPer1000, Source: SourceOnlineCons, Direction: HigherIsBetter, ConsistencyScale: scaleRateSeries, MinPeriods: minPeriodsNewSource},
		MetricDefinition{Key: MetricOCClinicalSharePct, Name: "Clinical share of online submissions", Unit: UnitPercent, Source: SourceOnlineCons, Direction: HigherIsBetter, ConsistencyScale: scalePercentSeries, MinPeriods: minPeriodsNewSource},
	)
}
