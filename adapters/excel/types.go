package excel

// RawRowData represents one row of sheet data as header-keyed string values
type RawRowData map[string]string

// SheetData represents one sheet (or CSV file) of the extract
type SheetData struct {
	Headers []string
	Rows    []RawRowData
}

// Sheet names expected in an XLSX extract. In CSV mode each sheet is a
// lower-snake file of the same name in the extract directory.
const (
	SheetPractices      = "Practices"
	SheetAppointments   = "Appointments"
	SheetTelephony      = "Telephony"
	SheetOnlineConsults = "OnlineConsultations"
)

var csvFileNames = map[string]string{
	SheetPractices:      "practices.csv",
	SheetAppointments:   "appointments.csv",
	SheetTelephony:      "telephony.csv",
	SheetOnlineConsults: "online_consultations.csv",
}
