// Package postgres persists canonical metric records. Records are append
// only: each extraction inserts fresh rows and reads resolve the latest
// extraction per (practice, period) at query time.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gppulse/domain/core"
	"gppulse/domain/metrics"
	"gppulse/ports"
)

// RecordRepositoryImpl implements RecordRepository for PostgreSQL
type RecordRepositoryImpl struct {
	db *sqlx.DB
}

// NewRecordRepository creates a new PostgreSQL record repository
func NewRecordRepository(db *sqlx.DB) ports.RecordRepository {
	return &RecordRepositoryImpl{db: db}
}

// Connect opens and pings a PostgreSQL connection
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS practice_metric_records (
	ods_code      TEXT        NOT NULL,
	period        TEXT        NOT NULL,
	extraction_id TEXT        NOT NULL,
	name          TEXT        NOT NULL DEFAULT '',
	pcn_id        TEXT        NOT NULL DEFAULT '',
	icb_id        TEXT        NOT NULL DEFAULT '',
	population    INTEGER     NOT NULL DEFAULT 0,
	metrics       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	has_appointments    BOOLEAN NOT NULL DEFAULT FALSE,
	has_telephony       BOOLEAN NOT NULL DEFAULT FALSE,
	has_online_consults BOOLEAN NOT NULL DEFAULT FALSE,
	working_days  INTEGER     NOT NULL DEFAULT 0,
	extracted_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (ods_code, period, extraction_id)
);
CREATE INDEX IF NOT EXISTS idx_pmr_practice ON practice_metric_records (ods_code, period);
CREATE INDEX IF NOT EXISTS idx_pmr_extracted ON practice_metric_records (extracted_at DESC);
`

// InitSchema creates the records table if it does not exist
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRecords stores a batch of canonical records in one transaction
func (r *RecordRepositoryImpl) SaveRecords(ctx context.Context, records []*metrics.PracticeMetricRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range records {
		metricsJSON, err := json.Marshal(rec.Metrics)
		if err != nil {
			return fmt.Errorf("failed to marshal metrics for %s %s: %w", rec.ODSCode, rec.Period, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO practice_metric_records (
				ods_code, period, extraction_id, name, pcn_id, icb_id, population,
				metrics, has_appointments, has_telephony, has_online_consults,
				working_days, extracted_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (ods_code, period, extraction_id) DO NOTHING`,
			rec.ODSCode.String(), rec.Period.String(), rec.ExtractionID.String(),
			rec.Name, rec.PCN.String(), rec.ICB.String(), rec.Population,
			metricsJSON, rec.HasAppointmentData, rec.HasTelephonyData, rec.HasOnlineConsultData,
			rec.WorkingDays, rec.ExtractedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// latestSelect keeps only the newest extraction per (practice, period)
const latestSelect = `
	SELECT DISTINCT ON (ods_code, period)
		ods_code, period, extraction_id, name, pcn_id, icb_id, population,
		metrics, has_appointments, has_telephony, has_online_consults,
		working_days, extracted_at
	FROM practice_metric_records
`

// LatestRecords returns the latest-extraction record for every practice and
// period inside the window. Zero window bounds are open.
func (r *RecordRepositoryImpl) LatestRecords(ctx context.Context, window core.PeriodWindow) ([]*metrics.PracticeMetricRecord, error) {
	query := latestSelect + ` WHERE ($1 = '' OR period >= $1) AND ($2 = '' OR period <= $2)
		ORDER BY ods_code, period, extracted_at DESC`

	from, to := "", ""
	if !window.From.IsZero() {
		from = window.From.String()
	}
	if !window.To.IsZero() {
		to = window.To.String()
	}

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// LatestForPractice returns one practice's latest records ordered by period
func (r *RecordRepositoryImpl) LatestForPractice(ctx context.Context, ods core.ODSCode) ([]*metrics.PracticeMetricRecord, error) {
	query := latestSelect + ` WHERE ods_code = $1
		ORDER BY ods_code, period, extracted_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ods.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanRecords(rows rowScanner) ([]*metrics.PracticeMetricRecord, error) {
	var records []*metrics.PracticeMetricRecord
	for rows.Next() {
		var rec metrics.PracticeMetricRecord
		var odsCode, periodKey, extractionID, pcnID, icbID string
		var metricsJSON []byte

		err := rows.Scan(
			&odsCode, &periodKey, &extractionID, &rec.Name, &pcnID, &icbID, &rec.Population,
			&metricsJSON, &rec.HasAppointmentData, &rec.HasTelephonyData, &rec.HasOnlineConsultData,
			&rec.WorkingDays, &rec.ExtractedAt,
		)
		if err != nil {
			return nil, err
		}

		period, err := core.ParsePeriod(periodKey)
		if err != nil {
			return nil, fmt.Errorf("stored record has invalid period %q: %w", periodKey, err)
		}

		rec.ODSCode = core.ODSCode(odsCode)
		rec.Period = period
		rec.ExtractionID = core.ExtractionID(extractionID)
		rec.PCN = core.PCNID(pcnID)
		rec.ICB = core.ICBID(icbID)

		if len(metricsJSON) > 0 {
			if err := json.Unmarshal(metricsJSON, &rec.Metrics); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metrics for %s %s: %w", odsCode, periodKey, err)
			}
		}

		records = append(records, &rec)
	}
	return records, rows.Err()
}
