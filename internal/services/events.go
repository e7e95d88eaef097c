package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

// Diary event types.
const (
	EventCreated      = "created"
	EventUpdated      = "updated"
	EventTrashed      = "trashed"
	EventRestored     = "restored"
	EventPurged       = "purged"
	EventTrashEmptied = "trash_emptied"
)

const eventChannelPrefix = "diary:user:"

// DiaryEvent is broadcast over Redis and forwarded to the user's websocket connections.
type DiaryEvent struct {
	Type      string       `json:"type"`
	UserID    string       `json:"-"`
	EntryID   string       `json:"entryId,omitempty"`
	Entry     *diary.Entry `json:"entry,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// EventPublisher announces diary changes.
type EventPublisher interface {
	Publish(ctx context.Context, evt DiaryEvent) error
}

// Hub fans events out to in-process subscribers, keyed by user.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan DiaryEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan DiaryEvent]struct{})}
}

// Subscribe registers a buffered channel for userID. The returned func unsubscribes and closes it.
func (h *Hub) Subscribe(userID string) (<-chan DiaryEvent, func()) {
	ch := make(chan DiaryEvent, 16)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan DiaryEvent]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Broadcast delivers evt to the user's subscribers. Slow subscribers miss events rather than block.
func (h *Hub) Broadcast(evt DiaryEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[evt.UserID] {
		select {
		case ch <- evt:
		default:
			log.Warn().Str("user_id", evt.UserID).Str("type", evt.Type).Msg("dropping diary event for slow subscriber")
		}
	}
}

// Publish satisfies EventPublisher for single-instance deployments.
func (h *Hub) Publish(_ context.Context, evt DiaryEvent) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	h.Broadcast(evt)
	return nil
}

// RedisEventBus publishes events to Redis so every instance can forward them to its own Hub.
type RedisEventBus struct {
	client *redis.Client
	hub    *Hub
}

func NewRedisEventBus(client *redis.Client, hub *Hub) *RedisEventBus {
	return &RedisEventBus{client: client, hub: hub}
}

func (b *RedisEventBus) Publish(ctx context.Context, evt DiaryEvent) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, eventChannelPrefix+evt.UserID, data).Err()
}

// Run subscribes to every user channel and forwards messages to the hub until ctx ends.
// Dropped subscriptions are re-established with exponential backoff.
func (b *RedisEventBus) Run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	for ctx.Err() == nil {
		err := b.receive(ctx, bo)
		if ctx.Err() != nil {
			return
		}
		wait := bo.NextBackOff()
		log.Warn().Err(err).Dur("retry_in", wait).Msg("diary event subscriber disconnected")
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (b *RedisEventBus) receive(ctx context.Context, bo backoff.BackOff) error {
	pubsub := b.client.PSubscribe(ctx, eventChannelPrefix+"*")
	defer pubsub.Close()

	log.Info().Str("pattern", eventChannelPrefix+"*").Msg("✅ Diary event subscriber started")
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		bo.Reset()

		// UserID is not serialized; it travels in the channel name.
		var evt DiaryEvent
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			log.Warn().Err(err).Msg("failed to unmarshal diary event")
			continue
		}
		evt.UserID = strings.TrimPrefix(msg.Channel, eventChannelPrefix)
		b.hub.Broadcast(evt)
	}
}
