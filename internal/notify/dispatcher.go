package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"campusattend/internal/metrics"
	"campusattend/internal/queue"
)

// DeliveryStore is the persistence the dispatcher needs.
type DeliveryStore interface {
	Get(ctx context.Context, id string) (Notification, error)
	ActiveDevices(ctx context.Context, userID string) ([]Device, error)
	DeactivateDevice(ctx context.Context, userID, registrationID string) error
	MarkSent(ctx context.Context, id string) error
}

// Dispatcher pushes stored notifications to the recipient's active devices.
type Dispatcher struct {
	store  DeliveryStore
	sender Sender
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(store DeliveryStore, sender Sender) *Dispatcher {
	return &Dispatcher{store: store, sender: sender}
}

// Deliver sends one notification. It is a no-op for notifications already sent.
// Devices the gateway reports as unknown are deactivated.
func (d *Dispatcher) Deliver(ctx context.Context, id string) error {
	n, err := d.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load notification %s: %w", id, err)
	}
	if n.SentToDevice {
		metrics.Notifications.WithLabelValues("skipped").Inc()
		return nil
	}

	devices, err := d.store.ActiveDevices(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("load devices for %s: %w", n.RecipientID, err)
	}

	sent := false
	for _, dev := range devices {
		err := d.sender.Send(ctx, PushMessage{
			Token: dev.RegistrationID,
			Title: n.Title,
			Body:  n.Message,
			Data: map[string]string{
				"type":         string(n.Type),
				"object_id":    n.RelatedID,
				"content_type": n.RelatedType,
			},
		})
		switch {
		case err == nil:
			sent = true
			metrics.Notifications.WithLabelValues("sent").Inc()
		case errors.Is(err, ErrNotRegistered):
			metrics.Notifications.WithLabelValues("unregistered").Inc()
			if err := d.store.DeactivateDevice(ctx, dev.UserID, dev.RegistrationID); err != nil {
				log.Printf("deactivate device %s failed: %v", dev.ID, err)
			}
		default:
			metrics.Notifications.WithLabelValues("failed").Inc()
			log.Printf("push to device %s failed: %v", dev.ID, err)
		}
	}

	if sent {
		return d.store.MarkSent(ctx, n.ID)
	}
	return nil
}

// Run consumes notification ids from q until ctx is done or the queue closes.
func (d *Dispatcher) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume init failed: %w", err)
	}
	for msg := range messages {
		if msg.Type != queue.TypeNotification {
			continue
		}
		id := string(msg.Body)
		if err := d.Deliver(ctx, id); err != nil {
			log.Printf("deliver notification %s failed: %v", id, err)
		}
	}
	return nil
}
