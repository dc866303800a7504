package fetcher

import (
	"context"

	"home-energy-dashboard/internal/telemetry"
)

// PayloadFetcher retrieves a full dashboard payload from the telemetry API.
type PayloadFetcher interface {
	FetchPayload(ctx context.Context) (telemetry.Payload, error)
}
