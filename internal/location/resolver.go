package location

import (
	"context"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
)

// Point is a geographic coordinate pair
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Resolver produces a best-effort current position for a patient. Failure
// must never block alert creation; callers proceed with a nil location.
type Resolver interface {
	Current(ctx context.Context, patientID uint) (*Point, error)
}

const recentLookback = 25

// ReadingResolver derives the current position from the most recent sensor
// reading that carried coordinates, bounded by a freshness horizon and a
// lookup timeout.
type ReadingResolver struct {
	readings  domain.ReadingRepository
	freshness time.Duration
	timeout   time.Duration
}

// NewReadingResolver creates a resolver over persisted readings
func NewReadingResolver(readings domain.ReadingRepository, freshness, timeout time.Duration) *ReadingResolver {
	return &ReadingResolver{
		readings:  readings,
		freshness: freshness,
		timeout:   timeout,
	}
}

// Current returns the freshest known position, or a timeout error when no
// reading within the freshness horizon carries coordinates.
func (r *ReadingResolver) Current(ctx context.Context, patientID uint) (*Point, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	recent, err := r.readings.Recent(ctx, patientID, recentLookback)
	if err != nil {
		return nil, apperrors.NewUnavailableError(err, "reading store")
	}

	cutoff := time.Now().Add(-r.freshness)
	for _, reading := range recent {
		if reading.Latitude == nil || reading.Longitude == nil {
			continue
		}
		if reading.CreatedAt.Before(cutoff) {
			break // newest first; everything after is older still
		}
		return &Point{Lat: *reading.Latitude, Lng: *reading.Longitude}, nil
	}

	return nil, apperrors.NewTimeoutError("location lookup")
}
