package interfaces

import "context"

// PollerInterface fetches the latest sensor reading and hands it to ingestion.
type PollerInterface interface {
	Enabled() bool
	Poll(ctx context.Context) error
}
