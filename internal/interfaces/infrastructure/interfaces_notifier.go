package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationKind enumerates the fire-and-forget events the core emits.
type NotificationKind string

const (
	NotifyStudent      NotificationKind = "student"
	NotifyLecturer     NotificationKind = "lecturer"
	NotifyDivisionHead NotificationKind = "division_head"
)

// NotificationEvent is a fire-and-forget message. Delivery is best effort;
// no correctness decision ever depends on it.
type NotificationEvent struct {
	Kind        NotificationKind `json:"kind"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	Subject     string           `json:"subject"`
	Body        string           `json:"body"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NotificationService accepts events for asynchronous delivery.
type NotificationService interface {
	Notify(ctx context.Context, event NotificationEvent) error
	StartWorkers()
	StopWorkers()
}
