package ports

import (
	"context"

	"gppulse/domain/core"
	"gppulse/domain/metrics"
)

// RecordRepository persists canonical metric records. Records are immutable:
// a re-extraction saves new records under a fresh extraction id and reads
// return only the latest extraction per (practice, period).
type RecordRepository interface {
	// SaveRecords stores a batch of canonical records
	SaveRecords(ctx context.Context, records []*metrics.PracticeMetricRecord) error

	// LatestRecords returns the latest-extraction record for every
	// (practice, period) inside the window
	LatestRecords(ctx context.Context, window core.PeriodWindow) ([]*metrics.PracticeMetricRecord, error)

	// LatestForPractice returns one practice's latest records ordered by period
	LatestForPractice(ctx context.Context, ods core.ODSCode) ([]*metrics.PracticeMetricRecord, error)
}
