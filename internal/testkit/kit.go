// Package testkit generates deterministic synthetic practice data for
// tests and for running the dashboard without a real extract.
package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"gppulse/analytics/normalize"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

// Profile shapes a synthetic practice's behavior over time
type Profile string

const (
	ProfileSteady    Profile = "steady"    // flat volumes, low dispersion
	ProfileVolatile  Profile = "volatile"  // large period-to-period swings
	ProfileImproving Profile = "improving" // rising volumes, falling missed calls
	ProfileInactive  Profile = "inactive"  // zero online submissions throughout
)

// TestKit builds synthetic raw inputs and normalized datasets from a fixed
// seed, so every run over the same seed produces the same data.
type TestKit struct {
	seed       int64
	rng        *rand.Rand
	normalizer *normalize.Normalizer
}

// New creates a test kit with the given seed
func New(seed int64) *TestKit {
	return &TestKit{
		seed:       seed,
		rng:        rand.New(rand.NewSource(seed)),
		normalizer: normalize.New(),
	}
}

// PracticeSpec describes one synthetic practice
type PracticeSpec struct {
	ODSCode    core.ODSCode
	Name       string
	PCN        core.PCNID
	ICB        core.ICBID
	Population int
	Profile    Profile
}

// Practices generates n practice specs spread over a handful of PCNs and
// two ICBs, cycling through the behavior profiles.
func (k *TestKit) Practices(n int) []PracticeSpec {
	profiles := []Profile{ProfileSteady, ProfileVolatile, ProfileImproving, ProfileInactive}
	specs := make([]PracticeSpec, 0, n)
	for i := 0; i < n; i++ {
		specs = append(specs, PracticeSpec{
			ODSCode:    core.ODSCode(fmt.Sprintf("A%05d", 81001+i)),
			Name:       fmt.Sprintf("Practice %c%d", 'A'+rune(i%26), i+1),
			PCN:        core.PCNID(fmt.Sprintf("PCN-%d", i%4+1)),
			ICB:        core.ICBID(fmt.Sprintf("ICB-%d", i%2+1)),
			Population: 4000 + k.rng.Intn(12000),
			Profile:    profiles[i%len(profiles)],
		})
	}
	return specs
}

// RawInputs generates one raw input per (practice, period)
func (k *TestKit) RawInputs(specs []PracticeSpec, periods []core.Period) []metrics.RawPracticeInput {
	var inputs []metrics.RawPracticeInput
	for _, spec := range specs {
		for i, period := range periods {
			inputs = append(inputs, k.rawInput(spec, period, i))
		}
	}
	return inputs
}

// Dataset generates and normalizes a full synthetic dataset. The extraction
// identity is derived from the seed, so the dataset fingerprint is stable
// across runs.
func (k *TestKit) Dataset(practices int, periods []core.Period) *metrics.Dataset {
	specs := k.Practices(practices)
	extractionID := core.ExtractionID(fmt.Sprintf("synthetic-%016x", k.seed))
	extractedAt := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	return k.normalizer.NormalizeBatch(k.RawInputs(specs, periods), extractionID, extractedAt)
}

// DefaultPeriods returns six consecutive months ending March 2024
func DefaultPeriods() []core.Period {
	return core.PeriodRange(core.NewPeriod(2023, time.October), core.NewPeriod(2024, time.March))
}

func (k *TestKit) rawInput(spec PracticeSpec, period core.Period, periodIdx int) metrics.RawPracticeInput {
	base := spec.Population / 10 // appointments scale with list size

	swing := 0.05
	trend := 0.0
	switch spec.Profile {
	case ProfileVolatile:
		swing = 0.45
	case ProfileImproving:
		trend = 0.08 * float64(periodIdx)
	}

	appts := k.jitter(base, swing, trend)
	input := metrics.RawPracticeInput{
		ODSCode:      spec.ODSCode,
		Name:         spec.Name,
		PCN:          spec.PCN,
		ICB:          spec.ICB,
		Period:       period,
		Population:   spec.Population,
		Appointments: k.appointments(period, appts),
		Telephony:    k.telephony(spec, periodIdx, appts),
	}
	if spec.Profile != ProfileInactive {
		input.OnlineConsults = k.onlineConsults(appts)
	} else {
		input.OnlineConsults = &metrics.OnlineConsultCounts{
			BySubmissionType: map[metrics.SubmissionType]int{metrics.SubmissionClinical: 0},
		}
	}
	return input
}

func (k *TestKit) appointments(period core.Period, total int) *metrics.AppointmentCounts {
	labels := []string{"Dr Patel", "Dr Okafor", "Locum Session", "Nurse Practitioner", "HCA"}
	counts := &metrics.AppointmentCounts{}

	day := period.Start()
	remaining := total
	for remaining > 0 {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			daily := remaining
			if daily > total/15+1 {
				daily = total/15 + 1
			}
			label := labels[k.rng.Intn(len(labels))]
			attended := daily - daily/12
			counts.Entries = append(counts.Entries,
				metrics.AppointmentEntry{Date: day, ProviderLabel: label, Status: metrics.StatusAttended, Count: attended},
				metrics.AppointmentEntry{Date: day, ProviderLabel: label, Status: metrics.StatusDidNotAttend, Count: daily - attended},
			)
			remaining -= daily
		}
		day = day.AddDate(0, 0, 1)
		if core.PeriodOf(day) != period {
			break
		}
	}
	return counts
}

func (k *TestKit) telephony(spec PracticeSpec, periodIdx, appts int) *metrics.TelephonyCounts {
	inbound := appts * 2
	missedRate := 0.08 + k.rng.Float64()*0.08
	if spec.Profile == ProfileImproving {
		missedRate *= 1 - 0.1*float64(periodIdx)
		if missedRate < 0.01 {
			missedRate = 0.01
		}
	}
	missed := int(float64(inbound) * missedRate)
	answered := inbound - missed
	return &metrics.TelephonyCounts{
		Inbound:           inbound,
		Answered:          answered,
		Missed:            missed,
		CallbackRequested: missed,
		CallbackMade:      missed - missed/5,
		WaitBuckets: map[metrics.WaitBucket]int{
			metrics.WaitUnder2Min: answered / 2,
			metrics.Wait2To5Min:   answered / 4,
			metrics.Wait5To10Min:  answered / 8,
			metrics.WaitOver10Min: answered - answered/2 - answered/4 - answered/8,
		},
	}
}

func (k *TestKit) onlineConsults(appts int) *metrics.OnlineConsultCounts {
	total := appts / 5
	clinical := total * 2 / 3
	return &metrics.OnlineConsultCounts{
		BySubmissionType: map[metrics.SubmissionType]int{
			metrics.SubmissionClinical: clinical,
			metrics.SubmissionAdmin:    total - clinical - total/10,
			metrics.SubmissionOther:    total / 10,
		},
	}
}

func (k *TestKit) jitter(base int, swing, trend float64) int {
	factor := 1 + trend + (k.rng.Float64()*2-1)*swing
	if factor < 0.05 {
		factor = 0.05
	}
	return int(float64(base) * factor)
}
