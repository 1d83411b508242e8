// Package notification delivers messages to sets of recipients on a best
// effort basis. Deliveries are independent; one blocked or deleted account
// never aborts the rest of the batch.
package notification

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"appealbot/internal/domain"
	"appealbot/pkg/log"
)

// Sender is the transport capability consumed by the fan-out. The bot
// adapter implements it; tests substitute their own.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Result struct {
	Recipient int64
	Err       error
}

type Results []Result

func (r Results) Delivered() int {
	var count int

	for _, result := range r {
		if result.Err == nil {
			count++
		}
	}

	return count
}

func (r Results) Failed() int {
	return len(r) - r.Delivered()
}

type Notifications struct {
	sender      Sender
	sendTimeout time.Duration
}

func New(sender Sender, sendTimeout time.Duration) *Notifications {
	return &Notifications{sender: sender, sendTimeout: sendTimeout}
}

// Notify delivers to a single recipient with a bounded wait.
func (n *Notifications) Notify(ctx context.Context, recipient int64, message string) error {
	if strings.TrimSpace(message) == "" {
		return domain.ErrEmptyMessage
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()

	if errSend := n.sender.SendMessage(sendCtx, recipient, message); errSend != nil {
		return errors.Join(errSend, domain.ErrDeliveryFailed)
	}

	return nil
}

// NotifyAll delivers message to every recipient concurrently, each send
// bounded by the configured timeout. Partial failure is aggregated into the
// results and logged, never returned as an error; only a message that cannot
// be attempted at all is rejected.
func (n *Notifications) NotifyAll(ctx context.Context, recipients []int64, message string) (Results, error) {
	if strings.TrimSpace(message) == "" {
		return nil, domain.ErrEmptyMessage
	}

	unique := slices.Compact(slices.Sorted(slices.Values(recipients)))
	results := make(Results, len(unique))

	group, groupCtx := errgroup.WithContext(ctx)

	for idx, recipient := range unique {
		group.Go(func() error {
			sendCtx, cancel := context.WithTimeout(groupCtx, n.sendTimeout)
			defer cancel()

			results[idx] = Result{Recipient: recipient, Err: n.sender.SendMessage(sendCtx, recipient, message)}

			return nil
		})
	}

	// Goroutines never return errors, failures land in results.
	_ = group.Wait()

	for _, result := range results {
		if result.Err != nil {
			slog.Warn("Failed to deliver notification",
				slog.Int64("recipient", result.Recipient), log.ErrAttr(result.Err))
		}
	}

	slog.Info("Notification fan-out complete",
		slog.Int("delivered", results.Delivered()), slog.Int("failed", results.Failed()))

	return results, nil
}
