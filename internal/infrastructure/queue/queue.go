package queue

import (
	"context"
	"sync"

	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/logger"
)

// Sender delivers one notification event. Delivery backends (mail, in-app)
// are plugged in here; the default logs the event and drops it.
type Sender func(event interfaces.NotificationEvent)

// Queue is an in-process notification queue with a worker pool. Events are
// fire-and-forget: a full buffer drops the event with a warning rather than
// blocking the request path.
type Queue struct {
	events  chan interfaces.NotificationEvent
	workers int
	sender  Sender

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

func NewInMemoryQueue(bufferSize, workers int, sender Sender) *Queue {
	ctx, cancel := context.WithCancel(context.Background())

	if sender == nil {
		sender = func(event interfaces.NotificationEvent) {
			logger.Info("Notification [%s] to %s: %s", event.Kind, event.RecipientID, event.Subject)
		}
	}

	return &Queue{
		events:  make(chan interfaces.NotificationEvent, bufferSize),
		workers: workers,
		sender:  sender,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (q *Queue) Notify(ctx context.Context, event interfaces.NotificationEvent) error {
	select {
	case q.events <- event:
		return nil
	default:
		logger.Warn("Notification queue full, dropping %s event for %s", event.Kind, event.RecipientID)
		return nil
	}
}

func (q *Queue) StartWorkers() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}

	logger.Info("Starting %d notification workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.started = true
}

func (q *Queue) StopWorkers() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return
	}

	q.cancel()
	q.wg.Wait()
	q.started = false
	logger.Info("Notification workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case event := <-q.events:
			q.sender(event)
			logger.Debug("Notification worker %d delivered %s event", id, event.Kind)
		}
	}
}

// NoopNotifier satisfies NotificationService for tests.
type NoopNotifier struct{}

func (NoopNotifier) Notify(ctx context.Context, event interfaces.NotificationEvent) error { return nil }
func (NoopNotifier) StartWorkers()                                                        {}
func (NoopNotifier) StopWorkers()                                                         {}
