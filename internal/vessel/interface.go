package vessel

import (
	"context"

	"github.com/bbernstein/shiptracker/internal/models"
)

// Fetcher retrieves the current position of a single vessel.
// Implementations make at most one upstream request per call and return *UpstreamError on failure.
type Fetcher interface {
	Fetch(ctx context.Context, mmsi string) (*models.PositionRecord, error)
}
