package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

func writeExtract(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func fullExtract(t *testing.T) string {
	return writeExtract(t, map[string]string{
		"practices.csv": "ods_code,name,pcn,icb,population\n" +
			"A81001,Riverside Surgery,PCN-1,ICB-1,8000\n" +
			"A81002,Hillside Practice,PCN-1,ICB-1,6000\n",
		"appointments.csv": "ods_code,period,date,provider,status,count\n" +
			"A81001,2024-03,2024-03-01,Dr Patel,attended,40\n" +
			"A81001,2024-03,2024-03-01,Dr Patel,did_not_attend,5\n" +
			"A81001,2024-03,2024-03-04,Nurse Practitioner,attended,30\n",
		"telephony.csv": "ods_code,period,inbound,answered,missed,callback_requested,callback_made,wait_under_2_min,wait_2_to_5_min,wait_5_to_10_min,wait_over_10_min\n" +
			"A81001,2024-03,1000,900,100,80,60,500,200,100,100\n",
		"online_consultations.csv": "ods_code,period,submission_type,count\n" +
			"A81001,2024-03,clinical,120\n" +
			"A81001,2024-03,clinical,30\n" +
			"A81001,2024-03,admin,50\n",
	})
}

func TestReadRawInputsCSV(t *testing.T) {
	reader := NewDataReader(fullExtract(t))
	inputs, err := reader.ReadRawInputs(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 1, "only A81001 reported data")

	in := inputs[0]
	assert.Equal(t, core.ODSCode("A81001"), in.ODSCode)
	assert.Equal(t, "Riverside Surgery", in.Name)
	assert.Equal(t, core.PCNID("PCN-1"), in.PCN)
	assert.Equal(t, core.ICBID("ICB-1"), in.ICB)
	assert.Equal(t, 8000, in.Population)
	assert.Equal(t, core.NewPeriod(2024, time.March), in.Period)

	require.NotNil(t, in.Appointments)
	require.Len(t, in.Appointments.Entries, 3)
	assert.Equal(t, metrics.StatusAttended, in.Appointments.Entries[0].Status)
	assert.Equal(t, 40, in.Appointments.Entries[0].Count)

	require.NotNil(t, in.Telephony)
	assert.Equal(t, 1000, in.Telephony.Inbound)
	assert.Equal(t, 100, in.Telephony.Missed)
	assert.Equal(t, 100, in.Telephony.WaitBuckets[metrics.WaitOver10Min])

	require.NotNil(t, in.OnlineConsults)
	assert.Equal(t, 150, in.OnlineConsults.BySubmissionType[metrics.SubmissionClinical], "repeated rows accumulate")
	assert.Equal(t, 50, in.OnlineConsults.BySubmissionType[metrics.SubmissionAdmin])
}

func TestReadRawInputsMissingSources(t *testing.T) {
	dir := writeExtract(t, map[string]string{
		"practices.csv": "ods_code,name,pcn,icb,population\n" +
			"A81001,Riverside Surgery,PCN-1,ICB-1,8000\n",
		"appointments.csv": "ods_code,period,date,provider,status,count\n" +
			"A81001,2024-03,2024-03-01,Dr Patel,attended,40\n",
	})

	inputs, err := NewDataReader(dir).ReadRawInputs(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 1)

	assert.NotNil(t, inputs[0].Appointments)
	assert.Nil(t, inputs[0].Telephony, "unreported source stays nil")
	assert.Nil(t, inputs[0].OnlineConsults)
}

func TestReadRawInputsMultiplePeriods(t *testing.T) {
	dir := writeExtract(t, map[string]string{
		"practices.csv": "ods_code,name,pcn,icb,population\n" +
			"A81001,Riverside Surgery,PCN-1,ICB-1,8000\n",
		"telephony.csv": "ods_code,period,inbound,answered,missed,callback_requested,callback_made\n" +
			"A81001,2024-01,900,850,50,40,30\n" +
			"A81001,2024-02,950,880,70,50,40\n",
	})

	inputs, err := NewDataReader(dir).ReadRawInputs(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, core.NewPeriod(2024, time.January), inputs[0].Period)
	assert.Equal(t, core.NewPeriod(2024, time.February), inputs[1].Period)
	assert.Nil(t, inputs[0].Telephony.WaitBuckets, "no bucket columns means no bucket map")
}

func TestReadRawInputsRequiresPractices(t *testing.T) {
	dir := writeExtract(t, map[string]string{
		"telephony.csv": "ods_code,period,inbound\nA81001,2024-01,900\n",
	})

	_, err := NewDataReader(dir).ReadRawInputs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "practices")
}

func TestReadRawInputsBadRows(t *testing.T) {
	dir := writeExtract(t, map[string]string{
		"practices.csv": "ods_code,name,pcn,icb,population\n" +
			"A81001,Riverside Surgery,PCN-1,ICB-1,8000\n",
		"appointments.csv": "ods_code,period,date,provider,status,count\n" +
			"A81001,2024-03,not-a-date,Dr Patel,attended,40\n",
	})

	_, err := NewDataReader(dir).ReadRawInputs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestReadRawInputsMissingExtract(t *testing.T) {
	_, err := NewDataReader("/nonexistent/extract").ReadRawInputs(context.Background())
	require.Error(t, err)
}
