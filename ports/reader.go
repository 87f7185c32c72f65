package ports

import (
	"context"

	"gppulse/domain/metrics"
)

// RawDataReader is the upstream extraction collaborator: it delivers the
// complete raw count set for a file or feed before any analysis begins.
// Low-level table extraction lives behind this port, never in the core.
type RawDataReader interface {
	ReadRawInputs(ctx context.Context) ([]metrics.RawPracticeInput, error)
}
