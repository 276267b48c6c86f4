package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CapacityCache holds hot-path lecturer capacity counters. It is an advisory
// fast path only: the relational transaction remains the source of truth, and
// a cache miss falls back to counting assignment rows.
type CapacityCache interface {
	GetCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error)
	SetCapacity(ctx context.Context, lecturerID, periodID uuid.UUID, capacity int, ttl time.Duration) error
	// DecrementCapacity atomically decrements with a floor at zero and
	// returns the new value; it fails when the counter is absent or already
	// zero.
	DecrementCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error)
	IncrementCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error)
	InvalidateCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) error
	Ping(ctx context.Context) error
}
