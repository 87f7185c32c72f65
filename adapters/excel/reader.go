// Package excel reads practice extracts from XLSX workbooks or a directory
// of CSV files and converts them into raw practice inputs for normalization.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gppulse/domain/core"
	"gppulse/domain/metrics"
	"gppulse/internal"
	apperrors "gppulse/internal/errors"
	"gppulse/ports"
)

var _ ports.RawDataReader = (*DataReader)(nil)

// DataReader reads a practice extract. An .xlsx path is read as a workbook
// with one sheet per source; a directory is read as CSV files of the same
// names.
type DataReader struct {
	path     string
	fileType string // "xlsx" or "csv"
	log      *internal.Logger
}

// NewDataReader creates a reader for the given extract path
func NewDataReader(path string) *DataReader {
	fileType := "csv"
	if strings.ToLower(filepath.Ext(path)) == ".xlsx" {
		fileType = "xlsx"
	}
	return &DataReader{path: path, fileType: fileType, log: internal.DefaultLogger}
}

type practiceInfo struct {
	name       string
	pcn        core.PCNID
	icb        core.ICBID
	population int
}

// ReadRawInputs reads the extract and assembles one raw input per practice
// and period. Sources a practice never reported stay nil on the input.
func (r *DataReader) ReadRawInputs(ctx context.Context) ([]metrics.RawPracticeInput, error) {
	start := time.Now()
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, apperrors.IngestError(fmt.Sprintf("extract not found: %s", r.path))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sheets, err := r.readSheets()
	if err != nil {
		return nil, err
	}

	practices, err := parsePractices(sheets[SheetPractices])
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*metrics.RawPracticeInput)
	var order []string
	input := func(ods core.ODSCode, period core.Period) *metrics.RawPracticeInput {
		key := ods.String() + "|" + period.String()
		if in, ok := byKey[key]; ok {
			return in
		}
		in := &metrics.RawPracticeInput{ODSCode: ods, Period: period}
		if info, ok := practices[ods]; ok {
			in.Name = info.name
			in.PCN = info.pcn
			in.ICB = info.icb
			in.Population = info.population
		}
		byKey[key] = in
		order = append(order, key)
		return in
	}

	if err := parseAppointments(sheets[SheetAppointments], input); err != nil {
		return nil, err
	}
	if err := parseTelephony(sheets[SheetTelephony], input); err != nil {
		return nil, err
	}
	if err := parseOnlineConsults(sheets[SheetOnlineConsults], input); err != nil {
		return nil, err
	}

	inputs := make([]metrics.RawPracticeInput, 0, len(order))
	for _, key := range order {
		inputs = append(inputs, *byKey[key])
	}

	r.log.Info("read %s extract %s: %d practices, %d practice-periods in %.0fms",
		r.fileType, r.path, len(practices), len(inputs), float64(time.Since(start).Microseconds())/1000)
	return inputs, nil
}

// readSheets loads every known sheet. Missing optional sheets come back as
// nil; the practices sheet is required.
func (r *DataReader) readSheets() (map[string]*SheetData, error) {
	names := []string{SheetPractices, SheetAppointments, SheetTelephony, SheetOnlineConsults}
	sheets := make(map[string]*SheetData, len(names))

	if r.fileType == "xlsx" {
		f, err := excelize.OpenFile(r.path)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to open workbook")
		}
		defer f.Close()

		for _, name := range names {
			rows, err := f.GetRows(name)
			if err != nil {
				continue // sheet absent
			}
			sheets[name] = rowsToSheet(rows)
		}
	} else {
		for _, name := range names {
			path := filepath.Join(r.path, csvFileNames[name])
			rows, err := readCSVFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, apperrors.Wrapf(err, "failed to read %s", path)
			}
			sheets[name] = rowsToSheet(rows)
		}
	}

	if sheets[SheetPractices] == nil {
		return nil, apperrors.IngestError("extract has no practices sheet")
	}
	return sheets, nil
}

func readCSVFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// rowsToSheet keys each data row by its trimmed header
func rowsToSheet(rows [][]string) *SheetData {
	if len(rows) == 0 {
		return &SheetData{}
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	sheet := &SheetData{Headers: headers}
	for _, row := range rows[1:] {
		data := make(RawRowData, len(headers))
		for i, cell := range row {
			if i < len(headers) {
				data[headers[i]] = strings.TrimSpace(cell)
			}
		}
		sheet.Rows = append(sheet.Rows, data)
	}
	return sheet
}

func parsePractices(sheet *SheetData) (map[core.ODSCode]practiceInfo, error) {
	practices := make(map[core.ODSCode]practiceInfo)
	for i, row := range sheet.Rows {
		ods, err := core.ParseODSCode(row["ods_code"])
		if err != nil {
			return nil, apperrors.IngestError(fmt.Sprintf("practices row %d: %v", i+2, err))
		}
		practices[ods] = practiceInfo{
			name:       row["name"],
			pcn:        core.PCNID(row["pcn"]),
			icb:        core.ICBID(row["icb"]),
			population: intCell(row, "population"),
		}
	}
	if len(practices) == 0 {
		return nil, apperrors.IngestError("practices sheet is empty")
	}
	return practices, nil
}

func parseAppointments(sheet *SheetData, input func(core.ODSCode, core.Period) *metrics.RawPracticeInput) error {
	if sheet == nil {
		return nil
	}
	for i, row := range sheet.Rows {
		ods, period, err := rowIdentity(row)
		if err != nil {
			return apperrors.IngestError(fmt.Sprintf("appointments row %d: %v", i+2, err))
		}
		date, err := time.Parse("2006-01-02", row["date"])
		if err != nil {
			return apperrors.IngestError(fmt.Sprintf("appointments row %d: invalid date %q", i+2, row["date"]))
		}

		in := input(ods, period)
		if in.Appointments == nil {
			in.Appointments = &metrics.AppointmentCounts{}
		}
		in.Appointments.Entries = append(in.Appointments.Entries, metrics.AppointmentEntry{
			Date:          date,
			ProviderLabel: row["provider"],
			Status:        parseStatus(row["status"]),
			Count:         intCell(row, "count"),
		})
	}
	return nil
}

func parseTelephony(sheet *SheetData, input func(core.ODSCode, core.Period) *metrics.RawPracticeInput) error {
	if sheet == nil {
		return nil
	}
	for i, row := range sheet.Rows {
		ods, period, err := rowIdentity(row)
		if err != nil {
			return apperrors.IngestError(fmt.Sprintf("telephony row %d: %v", i+2, err))
		}

		counts := &metrics.TelephonyCounts{
			Inbound:           intCell(row, "inbound"),
			Answered:          intCell(row, "answered"),
			Missed:            intCell(row, "missed"),
			CallbackRequested: intCell(row, "callback_requested"),
			CallbackMade:      intCell(row, "callback_made"),
		}
		buckets := map[metrics.WaitBucket]string{
			metrics.WaitUnder2Min: "wait_under_2_min",
			metrics.Wait2To5Min:   "wait_2_to_5_min",
			metrics.Wait5To10Min:  "wait_5_to_10_min",
			metrics.WaitOver10Min: "wait_over_10_min",
		}
		for bucket, column := range buckets {
			if _, ok := row[column]; ok {
				if counts.WaitBuckets == nil {
					counts.WaitBuckets = make(map[metrics.WaitBucket]int, len(buckets))
				}
				counts.WaitBuckets[bucket] = intCell(row, column)
			}
		}
		input(ods, period).Telephony = counts
	}
	return nil
}

func parseOnlineConsults(sheet *SheetData, input func(core.ODSCode, core.Period) *metrics.RawPracticeInput) error {
	if sheet == nil {
		return nil
	}
	for i, row := range sheet.Rows {
		ods, period, err := rowIdentity(row)
		if err != nil {
			return apperrors.IngestError(fmt.Sprintf("online consultations row %d: %v", i+2, err))
		}

		in := input(ods, period)
		if in.OnlineConsults == nil {
			in.OnlineConsults = &metrics.OnlineConsultCounts{
				BySubmissionType: make(map[metrics.SubmissionType]int),
			}
		}
		in.OnlineConsults.BySubmissionType[parseSubmissionType(row["submission_type"])] += intCell(row, "count")
	}
	return nil
}

func rowIdentity(row RawRowData) (core.ODSCode, core.Period, error) {
	ods, err := core.ParseODSCode(row["ods_code"])
	if err != nil {
		return "", core.Period{}, err
	}
	period, err := core.ParsePeriod(row["period"])
	if err != nil {
		return "", core.Period{}, err
	}
	return ods, period, nil
}

func parseStatus(s string) metrics.AttendanceStatus {
	switch strings.ToLower(s) {
	case "attended":
		return metrics.StatusAttended
	case "did_not_attend", "dna":
		return metrics.StatusDidNotAttend
	default:
		return metrics.StatusUnknown
	}
}

func parseSubmissionType(s string) metrics.SubmissionType {
	switch strings.ToLower(s) {
	case "clinical":
		return metrics.SubmissionClinical
	case "admin", "administrative":
		return metrics.SubmissionAdmin
	default:
		return metrics.SubmissionOther
	}
}

func intCell(row RawRowData, key string) int {
	v, err := strconv.Atoi(row[key])
	if err != nil {
		return 0
	}
	return v
}
