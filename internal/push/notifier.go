package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/choreweek/internal/effects"
	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
)

// SubscriptionStore lists and prunes subscriptions. Implemented by
// store.PushStore.
type SubscriptionStore interface {
	List() ([]model.PushSubscription, error)
	DeleteByEndpoint(endpoint string) error
}

type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

const sendTimeout = 10 * time.Second

// Notifier pushes notices for tracker events while reminders are enabled.
// Sends run in the background; Close waits for them.
type Notifier struct {
	store  SubscriptionStore
	sender Sender
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewNotifier(store SubscriptionStore, sender Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		store:  store,
		sender: sender,
		logger: logger.With("component", "push"),
	}
}

// Notify implements tracker.Subscriber.
func (n *Notifier) Notify(events []state.Event, cfg model.Configuration) {
	if !cfg.RemindersEnabled {
		return
	}
	var payloads []Payload
	for _, ev := range events {
		if notice, ok := effects.Describe(ev, cfg); ok {
			payloads = append(payloads, Payload{
				Title: notice.Title,
				Body:  notice.Message,
				URL:   "/",
				Tag:   string(ev.Kind),
			})
		}
	}
	if len(payloads) == 0 {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(payloads)
	}()
}

func (n *Notifier) deliver(payloads []Payload) {
	subs, err := n.store.List()
	if err != nil {
		n.logger.Error("list subscriptions", "error", err)
		return
	}
	for i := range subs {
		sub := &subs[i]
		for _, p := range payloads {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			err := n.sender.Send(ctx, sub, p)
			cancel()
			if errors.Is(err, ErrExpired) {
				n.logger.Info("removing expired subscription", "device", sub.DeviceName)
				if err := n.store.DeleteByEndpoint(sub.Endpoint); err != nil {
					n.logger.Error("delete subscription", "error", err)
				}
				break
			}
			if err != nil {
				n.logger.Warn("send push", "device", sub.DeviceName, "error", err)
			}
		}
	}
}

// Close waits for in-flight sends.
func (n *Notifier) Close() {
	n.wg.Wait()
}
