package jewelry

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ChangesChannel is the Redis channel catalog writes are announced on
const ChangesChannel = "jewelry:changes"

// Change operations
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// Change announces a write. Categories holds every category the write
// touched: both old and new when an update moves an item.
type Change struct {
	Op         string     `json:"op"`
	ID         uuid.UUID  `json:"id"`
	Categories []Category `json:"categories"`
}

type feedSubscriber struct {
	match  func(Change) bool
	notify chan struct{}
}

// Feed fans catalog changes out to live listings. With Redis every API
// instance sees every change; without it the feed is process-local.
type Feed struct {
	redis  *redis.Client
	pubsub *redis.PubSub

	mu          sync.RWMutex
	subscribers map[*feedSubscriber]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewFeed creates a change feed. redisClient may be nil.
func NewFeed(redisClient *redis.Client) *Feed {
	ctx, cancel := context.WithCancel(context.Background())

	f := &Feed{
		redis:       redisClient,
		subscribers: make(map[*feedSubscriber]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	if redisClient != nil {
		f.pubsub = redisClient.Subscribe(ctx, ChangesChannel)
	}
	return f
}

// Run relays Redis messages to local subscribers (call in goroutine).
// Without Redis it returns immediately.
func (f *Feed) Run() {
	if f.pubsub == nil {
		return
	}

	ch := f.pubsub.Channel()
	for {
		select {
		case <-f.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				log.Warn().Err(err).Msg("Malformed catalog change ignored")
				continue
			}
			f.broadcastLocal(change)
		}
	}
}

// Publish announces a change. If Redis is unavailable the change is
// delivered to this instance only.
func (f *Feed) Publish(ctx context.Context, change Change) {
	if f.redis != nil {
		payload, err := json.Marshal(change)
		if err == nil {
			err = f.redis.Publish(ctx, ChangesChannel, payload).Err()
		}
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("op", change.Op).Msg("Redis publish failed, delivering catalog change locally")
	}
	f.broadcastLocal(change)
}

// Subscribe returns a channel that receives a signal after each change
// accepted by match. Signals coalesce: a reader that falls behind gets one
// pending signal, not a backlog. The channel is closed when ctx ends.
func (f *Feed) Subscribe(ctx context.Context, match func(Change) bool) <-chan struct{} {
	sub := &feedSubscriber{match: match, notify: make(chan struct{}, 1)}

	f.mu.Lock()
	f.subscribers[sub] = struct{}{}
	f.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-f.ctx.Done():
		}
		f.mu.Lock()
		delete(f.subscribers, sub)
		close(sub.notify)
		f.mu.Unlock()
	}()

	return sub.notify
}

// SubscriberCount returns the number of local subscribers
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

func (f *Feed) broadcastLocal(change Change) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.subscribers {
		if sub.match != nil && !sub.match(change) {
			continue
		}
		select {
		case sub.notify <- struct{}{}:
		default:
			// a signal is already pending
		}
	}
}

// Shutdown stops the relay and closes every subscription
func (f *Feed) Shutdown() {
	f.cancel()
	if f.pubsub != nil {
		f.pubsub.Close()
	}
}
