// Package normalize converts raw per-source counts into canonical
// PracticeMetricRecords. It is the only place that knows the source
// layouts; everything downstream consumes the metric map and presence
// flags it produces.
package normalize

import (
	"strings"
	"time"

	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

// Normalizer builds canonical records from raw inputs. It is stateless and
// safe for concurrent use.
type Normalizer struct{}

// New creates a Normalizer
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize converts one practice-period's raw counts into a canonical
// record. Absent optional sources leave their presence flag false and their
// metrics undefined - never zero-filled. A zero or absent population leaves
// every per-1000 metric undefined while count metrics stay defined.
//
// Per-working-day denominators differ by source: appointment metrics divide
// by the deduplicated weekday dates actually present in the entries, while
// telephony and online-consultation feeds carry no day keys, so their
// per-day metrics divide by the calendar weekdays of the period.
func (n *Normalizer) Normalize(input metrics.RawPracticeInput) *metrics.PracticeMetricRecord {
	rec := &metrics.PracticeMetricRecord{
		ODSCode:      input.ODSCode,
		Name:         input.Name,
		PCN:          input.PCN,
		ICB:          input.ICB,
		Period:       input.Period,
		Population:   input.Population,
		Metrics:      make(map[metrics.MetricKey]float64),
		ExtractionID: core.NewExtractionID(),
		ExtractedAt:  time.Now().UTC(),
	}

	if input.Appointments != nil {
		n.applyAppointments(rec, input.Appointments)
	}
	if input.Telephony != nil {
		n.applyTelephony(rec, input.Telephony)
	}
	if input.OnlineConsults != nil {
		n.applyOnlineConsults(rec, input.OnlineConsults)
	}
	return rec
}

// NormalizeAll converts a batch of raw inputs and returns them as an
// immutable Dataset ready for analysis. All records share one extraction id
// so a re-run supersedes the whole batch.
func (n *Normalizer) NormalizeAll(inputs []metrics.RawPracticeInput) *metrics.Dataset {
	return n.NormalizeBatch(inputs, core.NewExtractionID(), time.Now().UTC())
}

// NormalizeBatch converts a batch under a caller-supplied extraction
// identity. Callers that need reproducible datasets (synthetic data,
// replayed extracts) derive the id and timestamp themselves; the dataset
// fingerprint then depends only on the inputs.
func (n *Normalizer) NormalizeBatch(inputs []metrics.RawPracticeInput, extractionID core.ExtractionID, extractedAt time.Time) *metrics.Dataset {
	records := make([]*metrics.PracticeMetricRecord, 0, len(inputs))
	for _, input := range inputs {
		rec := n.Normalize(input)
		rec.ExtractionID = extractionID
		rec.ExtractedAt = extractedAt
		records = append(records, rec)
	}
	return metrics.NewDataset(records)
}

// IsGPProvider classifies a provider-type label: anything whose label
// contains "dr" or "locum" (case-insensitively) counts as a GP; everything
// else is other staff. This split drives every GP-vs-all-staff metric.
func IsGPProvider(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "dr") || strings.Contains(l, "locum")
}

// countWorkingDays counts the distinct weekday dates among the entries.
// Dates are deduplicated first; Saturdays and Sundays never count.
func countWorkingDays(entries []metrics.AppointmentEntry) int {
	seen := make(map[string]bool)
	days := 0
	for _, e := range entries {
		key := e.Date.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		if wd := e.Date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}

func (n *Normalizer) applyAppointments(rec *metrics.PracticeMetricRecord, appts *metrics.AppointmentCounts) {
	rec.HasAppointmentData = true

	var total, gpTotal, dna int
	for _, e := range appts.Entries {
		total += e.Count
		if IsGPProvider(e.ProviderLabel) {
			gpTotal += e.Count
		}
		if e.Status == metrics.StatusDidNotAttend {
			dna += e.Count
		}
	}
	workingDays := countWorkingDays(appts.Entries)
	rec.WorkingDays = workingDays

	rec.Metrics[metrics.MetricApptsTotal] = float64(total)

	if workingDays > 0 {
		rec.Metrics[metrics.MetricApptsPerDay] = float64(total) / float64(workingDays)
		rec.Metrics[metrics.MetricGPApptsPerDay] = float64(gpTotal) / float64(workingDays)
	}
	if total > 0 {
		rec.Metrics[metrics.MetricDNARatePct] = float64(dna) / float64(total) * 100
		rec.Metrics[metrics.MetricGPSharePct] = float64(gpTotal) / float64(total) * 100
	}
	if rec.Population > 0 {
		rec.Metrics[metrics.MetricApptsPer1000] = per1000(total, rec.Population)
		rec.Metrics[metrics.MetricGPApptsPer1000] = per1000(gpTotal, rec.Population)
	}
}

func (n *Normalizer) applyTelephony(rec *metrics.PracticeMetricRecord, tel *metrics.TelephonyCounts) {
	rec.HasTelephonyData = true

	rec.Metrics[metrics.MetricCallsInbound] = float64(tel.Inbound)
	rec.Metrics[metrics.MetricCallsMissed] = float64(tel.Missed)

	if days := rec.Period.WorkingDays(); days > 0 {
		rec.Metrics[metrics.MetricCallsPerDay] = float64(tel.Inbound) / float64(days)
	}
	if tel.Inbound > 0 {
		rec.Metrics[metrics.MetricMissedCallPct] = float64(tel.Missed) / float64(tel.Inbound) * 100
	}
	if tel.CallbackRequested > 0 {
		rec.Metrics[metrics.MetricCallbackPct] = float64(tel.CallbackMade) / float64(tel.CallbackRequested) * 100
	}
	if tel.Answered > 0 && tel.WaitBuckets != nil {
		longWaits := tel.WaitBuckets[metrics.WaitOver10Min]
		rec.Metrics[metrics.MetricLongWaitPct] = float64(longWaits) / float64(tel.Answered) * 100
	}
	if rec.Population > 0 {
		rec.Metrics[metrics.MetricCallsPer1000] = per1000(tel.Inbound, rec.Population)
	}
}

func (n *Normalizer) applyOnlineConsults(rec *metrics.PracticeMetricRecord, oc *metrics.OnlineConsultCounts) {
	rec.HasOnlineConsultData = true

	var total, clinical int
	for st, count := range oc.BySubmissionType {
		total += count
		if st == metrics.SubmissionClinical {
			clinical += count
		}
	}

	rec.Metrics[metrics.MetricOCTotal] = float64(total)

	if days := rec.Period.WorkingDays(); days > 0 {
		rec.Metrics[metrics.MetricOCPerDay] = float64(total) / float64(days)
	}
	if total > 0 {
		rec.Metrics[metrics.MetricOCClinicalSharePct] = float64(clinical) / float64(total) * 100
	}
	if rec.Population > 0 {
		rec.Metrics[metrics.MetricOCPer1000] = per1000(total, rec.Population)
	}
}

func per1000(count, population int) float64 {
	return float64(count) / float64(population) * 1000
}
