package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

func date(day int) time.Time {
	// March 2024: the 1st is a Friday, 2nd/3rd a weekend
	return time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC)
}

func baseInput() metrics.RawPracticeInput {
	return metrics.RawPracticeInput{
		ODSCode:    "A81001",
		Name:       "Riverside Medical Centre",
		PCN:        "PCN-NORTH",
		ICB:        "ICB-NE",
		Period:     core.NewPeriod(2024, time.March),
		Population: 8000,
	}
}

func TestIsGPProvider(t *testing.T) {
	assert.True(t, IsGPProvider("Dr Smith"))
	assert.True(t, IsGPProvider("DR JONES"))
	assert.True(t, IsGPProvider("Locum GP"))
	assert.True(t, IsGPProvider("Salaried locum"))
	assert.False(t, IsGPProvider("Nurse Practitioner"))
	assert.False(t, IsGPProvider("HCA"))
	assert.False(t, IsGPProvider("Physio"))
}

func TestNormalizeAppointments(t *testing.T) {
	input := baseInput()
	input.Appointments = &metrics.AppointmentCounts{Entries: []metrics.AppointmentEntry{
		{Date: date(4), ProviderLabel: "Dr Smith", Status: metrics.StatusAttended, Count: 30},
		{Date: date(4), ProviderLabel: "Nurse", Status: metrics.StatusAttended, Count: 10},
		{Date: date(5), ProviderLabel: "Dr Smith", Status: metrics.StatusDidNotAttend, Count: 10},
		{Date: date(5), ProviderLabel: "Nurse", Status: metrics.StatusAttended, Count: 30},
	}}

	rec := New().Normalize(input)
	require.True(t, rec.HasAppointmentData)
	assert.Equal(t, 2, rec.WorkingDays)

	total, ok := rec.Metric(metrics.MetricApptsTotal)
	require.True(t, ok)
	assert.Equal(t, 80.0, total)

	perDay, ok := rec.Metric(metrics.MetricApptsPerDay)
	require.True(t, ok)
	assert.Equal(t, 40.0, perDay)

	gpPerDay, ok := rec.Metric(metrics.MetricGPApptsPerDay)
	require.True(t, ok)
	assert.Equal(t, 20.0, gpPerDay)

	dna, ok := rec.Metric(metrics.MetricDNARatePct)
	require.True(t, ok)
	assert.InDelta(t, 12.5, dna, 1e-9)

	gpShare, ok := rec.Metric(metrics.MetricGPSharePct)
	require.True(t, ok)
	assert.InDelta(t, 50.0, gpShare, 1e-9)

	per1000, ok := rec.Metric(metrics.MetricApptsPer1000)
	require.True(t, ok)
	assert.InDelta(t, 10.0, per1000, 1e-9)
}

func TestWorkingDaysDedupeAndWeekends(t *testing.T) {
	input := baseInput()
	input.Appointments = &metrics.AppointmentCounts{Entries: []metrics.AppointmentEntry{
		{Date: date(4), ProviderLabel: "Dr A", Status: metrics.StatusAttended, Count: 1},
		{Date: date(4), ProviderLabel: "Nurse", Status: metrics.StatusAttended, Count: 1}, // same date, not recounted
		{Date: date(2), ProviderLabel: "Dr A", Status: metrics.StatusAttended, Count: 1},  // Saturday
		{Date: date(3), ProviderLabel: "Dr A", Status: metrics.StatusAttended, Count: 1},  // Sunday
	}}

	rec := New().Normalize(input)
	assert.Equal(t, 1, rec.WorkingDays)
}

func TestAbsentTelephonyYieldsFlagNotZeros(t *testing.T) {
	input := baseInput()
	input.Appointments = &metrics.AppointmentCounts{Entries: []metrics.AppointmentEntry{
		{Date: date(4), ProviderLabel: "Dr A", Status: metrics.StatusAttended, Count: 5},
	}}

	rec := New().Normalize(input)
	assert.False(t, rec.HasTelephonyData)
	assert.False(t, rec.HasMetric(metrics.MetricCallsInbound))
	assert.False(t, rec.HasMetric(metrics.MetricMissedCallPct))
}

func TestNormalizeTelephony(t *testing.T) {
	input := baseInput()
	input.Telephony = &metrics.TelephonyCounts{
		Inbound:           1000,
		Answered:          900,
		Missed:            100,
		CallbackRequested: 50,
		CallbackMade:      40,
		WaitBuckets: map[metrics.WaitBucket]int{
			metrics.WaitUnder2Min: 600,
			metrics.WaitOver10Min: 90,
		},
	}

	rec := New().Normalize(input)
	require.True(t, rec.HasTelephonyData)

	missedPct, ok := rec.Metric(metrics.MetricMissedCallPct)
	require.True(t, ok)
	assert.InDelta(t, 10.0, missedPct, 1e-9)

	callbackPct, ok := rec.Metric(metrics.MetricCallbackPct)
	require.True(t, ok)
	assert.InDelta(t, 80.0, callbackPct, 1e-9)

	longWaitPct, ok := rec.Metric(metrics.MetricLongWaitPct)
	require.True(t, ok)
	assert.InDelta(t, 10.0, longWaitPct, 1e-9)

	per1000, ok := rec.Metric(metrics.MetricCallsPer1000)
	require.True(t, ok)
	assert.InDelta(t, 125.0, per1000, 1e-9)
}

func TestNormalizeOnlineConsults(t *testing.T) {
	input := baseInput()
	input.OnlineConsults = &metrics.OnlineConsultCounts{BySubmissionType: map[metrics.SubmissionType]int{
		metrics.SubmissionClinical: 120,
		metrics.SubmissionAdmin:    80,
	}}

	rec := New().Normalize(input)
	require.True(t, rec.HasOnlineConsultData)

	total, ok := rec.Metric(metrics.MetricOCTotal)
	require.True(t, ok)
	assert.Equal(t, 200.0, total)

	share, ok := rec.Metric(metrics.MetricOCClinicalSharePct)
	require.True(t, ok)
	assert.InDelta(t, 60.0, share, 1e-9)

	per1000, ok := rec.Metric(metrics.MetricOCPer1000)
	require.True(t, ok)
	assert.InDelta(t, 25.0, per1000, 1e-9)
}

// Scenario C: population 0 keeps count metrics defined but leaves per-1000
// metrics undefined - never zero, never NaN.
func TestZeroPopulationLeavesPer1000Undefined(t *testing.T) {
	input := baseInput()
	input.Population = 0
	input.Appointments = &metrics.AppointmentCounts{Entries: []metrics.AppointmentEntry{
		{Date: date(4), ProviderLabel: "Dr A", Status: metrics.StatusAttended, Count: 50},
	}}

	rec := New().Normalize(input)

	total, ok := rec.Metric(metrics.MetricApptsTotal)
	require.True(t, ok)
	assert.Equal(t, 50.0, total)

	assert.False(t, rec.HasMetric(metrics.MetricApptsPer1000))
	assert.False(t, rec.HasMetric(metrics.MetricGPApptsPer1000))
}

func TestZeroInboundLeavesMissedPctUndefined(t *testing.T) {
	input := baseInput()
	input.Telephony = &metrics.TelephonyCounts{Inbound: 0, Missed: 0}

	rec := New().Normalize(input)
	assert.True(t, rec.HasTelephonyData)
	assert.False(t, rec.HasMetric(metrics.MetricMissedCallPct))

	inbound, ok := rec.Metric(metrics.MetricCallsInbound)
	require.True(t, ok)
	assert.Equal(t, 0.0, inbound)
}

func TestNormalizeAllSharesExtractionID(t *testing.T) {
	a := baseInput()
	b := baseInput()
	b.ODSCode = "A81002"

	ds := New().NormalizeAll([]metrics.RawPracticeInput{a, b})
	recs := ds.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, recs[0].ExtractionID, recs[1].ExtractionID)
	assert.False(t, recs[0].ExtractionID.IsEmpty())
}

func TestDatasetSupersedesOnReExtraction(t *testing.T) {
	input := baseInput()
	n := New()

	old := n.Normalize(input)
	old.ExtractedAt = time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	old.Metrics[metrics.MetricApptsTotal] = 10

	newer := n.Normalize(input)
	newer.ExtractedAt = time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)
	newer.Metrics[metrics.MetricApptsTotal] = 20

	ds := metrics.NewDataset([]*metrics.PracticeMetricRecord{old, newer})
	require.Equal(t, 1, ds.Len())
	v, ok := ds.Records()[0].Metric(metrics.MetricApptsTotal)
	require.True(t, ok)
	assert.Equal(t, 20.0, v)
}

func TestNormalizeBatchReproducibleFingerprint(t *testing.T) {
	extractionID := core.ExtractionID("replay-0001")
	extractedAt := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	a := New().NormalizeBatch([]metrics.RawPracticeInput{baseInput()}, extractionID, extractedAt)
	b := New().NormalizeBatch([]metrics.RawPracticeInput{baseInput()}, extractionID, extractedAt)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "same inputs and identity, same fingerprint")

	// A fresh extraction of the same inputs is a new record set
	c := New().NormalizeBatch([]metrics.RawPracticeInput{baseInput()}, core.ExtractionID("replay-0002"), extractedAt)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
