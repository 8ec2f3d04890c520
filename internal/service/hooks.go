// Package service holds the business rules of the Q&A and reputation engine.
package service

import (
	"context"

	"unajuda/internal/featureflags"
	"unajuda/internal/notifications"
)

// Publisher delivers realtime messages. *notifications.Notifier implements it.
type Publisher interface {
	PublishBadgeEarned(ctx context.Context, userID uint, p notifications.BadgeEarnedPayload) error
	PublishChange(ctx context.Context, table, column string, id uint, op string) error
}

// ActivityHook runs after a committed write that changes users' activity counters.
// Failures are the hook's own business; they never fail the write that triggered it.
type ActivityHook interface {
	AfterActivity(ctx context.Context, userIDs ...uint)
}

type noopPublisher struct{}

func (noopPublisher) PublishBadgeEarned(context.Context, uint, notifications.BadgeEarnedPayload) error {
	return nil
}

func (noopPublisher) PublishChange(context.Context, string, string, uint, string) error {
	return nil
}

// gatedPublisher drops change pulses while the change_feed flag is off.
type gatedPublisher struct {
	Publisher
	flags *featureflags.Manager
}

func (g gatedPublisher) PublishChange(ctx context.Context, table, column string, id uint, op string) error {
	if !g.flags.Enabled(featureflags.ChangeFeed, 0) {
		return nil
	}
	return g.Publisher.PublishChange(ctx, table, column, id, op)
}

// GatePublisher wraps p so change pulses follow the change_feed flag.
func GatePublisher(p Publisher, flags *featureflags.Manager) Publisher {
	return gatedPublisher{Publisher: publisherOrNoop(p), flags: flags}
}

type noopHook struct{}

func (noopHook) AfterActivity(context.Context, ...uint) {}

func publisherOrNoop(p Publisher) Publisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func hookOrNoop(h ActivityHook) ActivityHook {
	if h == nil {
		return noopHook{}
	}
	return h
}

// uniqueIDs drops zeros and repeats while keeping order.
func uniqueIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
