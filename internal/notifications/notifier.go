// Package notifications publishes debate events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"arena/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event type constants prevent typos in event names.
const (
	EventSideJoined      = "side_joined"
	EventArgumentPosted  = "argument_posted"
	EventArgumentEdited  = "argument_edited"
	EventArgumentDeleted = "argument_deleted"
	EventVoteCast        = "vote_cast"
	EventDebateSettled   = "debate_settled"
)

const debateChannelPrefix = "debates:"

// Event is the envelope delivered to live feed subscribers.
type Event struct {
	Type     string      `json:"type"`
	DebateID string      `json:"debate_id"`
	Payload  interface{} `json:"payload"`
	At       time.Time   `json:"at"`
}

// DebateChannel is the Redis channel carrying a debate's events.
func DebateChannel(debateID string) string {
	return debateChannelPrefix + debateID
}

// DebateIDFromChannel reverses DebateChannel.
func DebateIDFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, debateChannelPrefix) {
		return "", false
	}
	return strings.TrimPrefix(channel, debateChannelPrefix), true
}

// Notifier provides helpers to publish events into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends the event to its debate channel.
func (n *Notifier) Publish(ctx context.Context, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	if err := n.rdb.Publish(ctx, DebateChannel(event.DebateID), payload).Err(); err != nil {
		return err
	}
	observability.EventsPublished.WithLabelValues(event.Type).Inc()
	return nil
}

// SubscribeDebate delivers every payload published for debateID to
// onMessage until ctx is cancelled. onMessage runs on a single goroutine.
// The returned channel is closed once that goroutine has exited; after
// that onMessage is never called again.
func (n *Notifier) SubscribeDebate(ctx context.Context, debateID string, onMessage func(payload string)) (<-chan struct{}, error) {
	if n == nil || n.rdb == nil {
		return nil, fmt.Errorf("notifier unavailable")
	}
	sub := n.rdb.Subscribe(ctx, DebateChannel(debateID))
	// Wait for confirmation so no event published after return is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", DebateChannel(debateID), err)
	}
	return n.consume(ctx, sub, func(_ string, payload string) { onMessage(payload) }), nil
}

// StartPatternSubscriber subscribes to every debate channel and calls
// onMessage with the channel and payload of each event.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel string, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, debateChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("psubscribe: %w", err)
	}
	n.consume(ctx, sub, onMessage)
	return nil
}

func (n *Notifier) consume(ctx context.Context, sub *redis.PubSub, onMessage func(channel, payload string)) <-chan struct{} {
	ch := sub.Channel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok || ctx.Err() != nil {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in debate subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()
	return done
}
