package services

import (
	"context"
	"log"
	"time"

	"studyplan/internal/models"
)

// Notifier receives the one transient notification each user action emits.
type Notifier interface {
	Notify(ctx context.Context, ownerID string, n models.Notification)
}

// Notifiers fans a notification out to every non-nil notifier.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, ownerID string, n models.Notification) {
	for _, notifier := range ns {
		if notifier != nil {
			notifier.Notify(ctx, ownerID, n)
		}
	}
}

type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, ownerID string, n models.Notification) {
	log.Printf("[notify][%s] owner=%s op=%s msg=%q", n.Level, ownerID, n.Operation, n.Message)
}

// QueuedNotifier delivers notifications from a background worker so a slow
// downstream never holds up the request that emitted them. Notifications
// arriving while the queue is full are dropped.
type QueuedNotifier struct {
	next  Notifier
	queue chan queuedNotification
}

type queuedNotification struct {
	ownerID string
	n       models.Notification
}

func NewQueuedNotifier(next Notifier, size int) *QueuedNotifier {
	if size < 1 {
		size = 1
	}
	return &QueuedNotifier{next: next, queue: make(chan queuedNotification, size)}
}

func (q *QueuedNotifier) Notify(_ context.Context, ownerID string, n models.Notification) {
	select {
	case q.queue <- queuedNotification{ownerID: ownerID, n: n}:
	default:
		log.Printf("[notify][drop] queue full owner=%s op=%s", ownerID, n.Operation)
	}
}

// Run delivers queued notifications until ctx is cancelled.
func (q *QueuedNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-q.queue:
			q.next.Notify(ctx, item.ownerID, item.n)
		}
	}
}

func emit(ctx context.Context, notifier Notifier, ownerID, op string, level models.NotificationLevel, message string) {
	if notifier == nil || ownerID == "" {
		return
	}
	notifier.Notify(ctx, ownerID, models.Notification{
		Level:     level,
		Message:   message,
		Operation: op,
		CreatedAt: time.Now().UTC(),
	})
}
