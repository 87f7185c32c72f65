package testkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

func TestDatasetDeterministic(t *testing.T) {
	periods := DefaultPeriods()
	a := New(42).Dataset(6, periods)
	b := New(42).Dataset(6, periods)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "same seed, same dataset")
	assert.NotEqual(t, a.Fingerprint(), New(7).Dataset(6, periods).Fingerprint())
}

func TestDatasetShape(t *testing.T) {
	periods := DefaultPeriods()
	ds := New(42).Dataset(6, periods)

	require.Equal(t, 6*len(periods), ds.Len())
	assert.Len(t, ds.Practices(), 6)
	assert.Equal(t, periods, ds.Periods())
}

func TestGeneratedRecordsCarryAllSources(t *testing.T) {
	ds := New(42).Dataset(4, DefaultPeriods())

	for _, rec := range ds.Records() {
		assert.True(t, rec.HasAppointmentData, "%s %s", rec.ODSCode, rec.Period)
		assert.True(t, rec.HasTelephonyData)
		assert.True(t, rec.HasOnlineConsultData)
		assert.Greater(t, rec.Population, 0)
		assert.Greater(t, rec.WorkingDays, 0)
	}
}

func TestInactiveProfileHasZeroSubmissions(t *testing.T) {
	kit := New(42)
	specs := kit.Practices(4)

	var inactive *PracticeSpec
	for i := range specs {
		if specs[i].Profile == ProfileInactive {
			inactive = &specs[i]
			break
		}
	}
	require.NotNil(t, inactive)

	inputs := kit.RawInputs([]PracticeSpec{*inactive}, []core.Period{core.NewPeriod(2024, time.March)})
	require.Len(t, inputs, 1)
	require.NotNil(t, inputs[0].OnlineConsults)
	assert.Equal(t, 0, inputs[0].OnlineConsults.BySubmissionType[metrics.SubmissionClinical])
}

func TestAppointmentEntriesStayInPeriod(t *testing.T) {
	kit := New(42)
	period := core.NewPeriod(2024, time.February)
	inputs := kit.RawInputs(kit.Practices(1), []core.Period{period})
	require.Len(t, inputs, 1)
	require.NotNil(t, inputs[0].Appointments)

	for _, entry := range inputs[0].Appointments.Entries {
		assert.Equal(t, period, core.PeriodOf(entry.Date))
		wd := entry.Date.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
	}
}
