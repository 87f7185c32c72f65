package metrics

import (
	"time"

	"gppulse/domain/core"
)

// AttendanceStatus is the outcome of a booked appointment
type AttendanceStatus string

const (
	StatusAttended     AttendanceStatus = "attended"
	StatusDidNotAttend AttendanceStatus = "did_not_attend"
	StatusUnknown      AttendanceStatus = "unknown"
)

// AppointmentEntry is one extracted appointment-count row: a date, the
// provider-type label as it appeared in the source table, an attendance
// status and how many appointments it covers.
type AppointmentEntry struct {
	Date          time.Time        `json:"date"`
	ProviderLabel string           `json:"provider_label"`
	Status        AttendanceStatus `json:"status"`
	Count         int              `json:"count"`
}

// AppointmentCounts carries the day-keyed appointment rows for one period
type AppointmentCounts struct {
	Entries []AppointmentEntry `json:"entries"`
}

// WaitBucket is a telephone wait-time band
type WaitBucket string

const (
	WaitUnder2Min WaitBucket = "under_2_min"
	Wait2To5Min   WaitBucket = "2_to_5_min"
	Wait5To10Min  WaitBucket = "5_to_10_min"
	WaitOver10Min WaitBucket = "over_10_min"
)

// TelephonyCounts carries one period's call-volume figures
type TelephonyCounts struct {
	Inbound           int                `json:"inbound"`
	Answered          int                `json:"answered"`
	Missed            int                `json:"missed"`
	CallbackRequested int                `json:"callback_requested"`
	CallbackMade      int                `json:"callback_made"`
	WaitBuckets       map[WaitBucket]int `json:"wait_buckets,omitempty"`
}

// SubmissionType classifies an online-consultation submission by purpose
type SubmissionType string

const (
	SubmissionClinical SubmissionType = "clinical"
	SubmissionAdmin    SubmissionType = "admin"
	SubmissionOther    SubmissionType = "other"
)

// OnlineConsultCounts carries one period's online-consultation submissions
type OnlineConsultCounts struct {
	BySubmissionType map[SubmissionType]int `json:"by_submission_type"`
}

// RawPracticeInput is the input contract from upstream extraction
// collaborators: everything known about one practice for one period.
// Optional sources are nil pointers when absent - never zero-filled counts.
type RawPracticeInput struct {
	ODSCode    core.ODSCode `json:"ods_code"`
	Name       string       `json:"name"`
	PCN        core.PCNID   `json:"pcn_id"`
	ICB        core.ICBID   `json:"icb_id"`
	Period     core.Period  `json:"period"`
	Population int          `json:"population"` // 0 means unknown/absent

	Appointments   *AppointmentCounts   `json:"appointments,omitempty"`
	Telephony      *TelephonyCounts     `json:"telephony,omitempty"`
	OnlineConsults *OnlineConsultCounts `json:"online_consults,omitempty"`
}

// PracticeMetricRecord is the canonical per-practice-per-period record every
// analysis consumes. It is immutable once built; a re-extraction produces a
// new record with a fresh ExtractionID that supersedes this one.
//
// Metrics that cannot be computed (zero denominator, absent source) are
// simply absent from the map - never stored as zero. Consumers must go
// through Metric and check the presence flags before trusting a zero count.
type PracticeMetricRecord struct {
	ODSCode    core.ODSCode `json:"ods_code"`
	Name       string       `json:"name"`
	PCN        core.PCNID   `json:"pcn_id"`
	ICB        core.ICBID   `json:"icb_id"`
	Period     core.Period  `json:"period"`
	Population int          `json:"population"`

	Metrics map[MetricKey]float64 `json:"metrics"`

	HasAppointmentData   bool `json:"has_appointment_data"`
	HasTelephonyData     bool `json:"has_telephony_data"`
	HasOnlineConsultData bool `json:"has_online_consult_data"`

	WorkingDays int `json:"working_days"`

	ExtractionID core.ExtractionID `json:"extraction_id"`
	ExtractedAt  time.Time         `json:"extracted_at"`
}

// Metric returns the value for key and whether it is defined on this record
func (r *PracticeMetricRecord) Metric(key MetricKey) (float64, bool) {
	if r == nil || r.Metrics == nil {
		return 0, false
	}
	v, ok := r.Metrics[key]
	return v, ok
}

// HasMetric reports whether key is defined on this record
func (r *PracticeMetricRecord) HasMetric(key MetricKey) bool {
	_, ok := r.Metric(key)
	return ok
}

// Key returns the record's identity string, used in dataset fingerprints
func (r *PracticeMetricRecord) Key() string {
	return r.ODSCode.String() + "|" + r.Period.String() + "|" + r.ExtractionID.String()
}
