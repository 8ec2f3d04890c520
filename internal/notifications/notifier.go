// Package notifications delivers change pulses and user notifications over Redis and WebSockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"unajuda/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes change pulses and user notifications into Redis channels.
// Without Redis it hands messages to a local dispatcher so a single instance still works.
type Notifier struct {
	rdb   *redis.Client
	local func(channel, payload string)
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// SetLocalDispatcher sets where messages go when Redis is not configured.
func (n *Notifier) SetLocalDispatcher(fn func(channel, payload string)) {
	n.local = fn
}

func (n *Notifier) publish(ctx context.Context, channel, payload string) error {
	if n == nil {
		return nil
	}
	ctx, span := observability.GetTraceLayer().TracePublish(ctx, channel)
	defer span.End()

	if n.rdb == nil {
		if n.local != nil {
			n.local(channel, payload)
		}
		return nil
	}
	if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	return n.publish(ctx, UserChannel(userID), payload)
}

// PublishBadgeEarned tells userID they earned a badge.
func (n *Notifier) PublishBadgeEarned(ctx context.Context, userID uint, p BadgeEarnedPayload) error {
	b, err := json.Marshal(Envelope{Type: EventBadgeEarned, Payload: p})
	if err != nil {
		return fmt.Errorf("marshal badge notification: %w", err)
	}
	return n.PublishUser(ctx, userID, string(b))
}

// PublishChange emits a pulse for rows of table whose column equals id.
func (n *Notifier) PublishChange(ctx context.Context, table, column string, id uint, op string) error {
	topic := Topic{Table: table, Filter: Filter{Column: column, ID: id}}
	b, err := json.Marshal(ChangeEvent{
		Type:   EventChange,
		Table:  table,
		Filter: topic.Filter.String(),
		Op:     op,
	})
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	return n.publish(ctx, topic.Channel(), string(b))
}

// StartSubscriber subscribes to user and change channels and calls onMessage
// for each incoming message until ctx is done.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel string, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userPrefix+"*", changePrefix+"*")
	// Wait for the subscription confirmation so early publishes are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
