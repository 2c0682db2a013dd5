package realtime

import (
	"context"
	"sync"

	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelStoriesChanged = "stories:changed"

// FetchFunc loads the current active story set.
type FetchFunc func(ctx context.Context) ([]models.Story, error)

// Hub fans active-story changes out to local subscribers. Invalidations
// travel over a Redis channel so every instance refreshes, whichever one
// took the write.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]func([]models.Story)
	nextID int

	fetch FetchFunc
	rdb   *redis.Client
	log   *zap.Logger
}

// NewHub creates a new Hub
func NewHub(rdb *redis.Client, fetch FetchFunc, log *zap.Logger) *Hub {
	return &Hub{
		subs:  make(map[int]func([]models.Story)),
		fetch: fetch,
		rdb:   rdb,
		log:   log,
	}
}

// Run listens for invalidations until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, channelStoriesChanged)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			h.Refresh(ctx)
		}
	}
}

// StoriesChanged publishes an invalidation. When Redis is unreachable the
// local subscribers are still refreshed directly.
func (h *Hub) StoriesChanged(ctx context.Context) {
	if err := h.rdb.Publish(ctx, channelStoriesChanged, "1").Err(); err != nil {
		h.log.Warn("failed to publish story change, refreshing locally", zap.Error(err))
		h.Refresh(ctx)
	}
}

// Subscribe registers a callback invoked with the fresh active set on every
// change. The returned function unsubscribes; after it returns the callback
// will not fire again.
func (h *Hub) Subscribe(fn func([]models.Story)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Refresh re-queries the active set and dispatches it to all subscribers
func (h *Hub) Refresh(ctx context.Context) {
	stories, err := h.fetch(ctx)
	if err != nil {
		h.log.Warn("failed to fetch active stories for subscribers", zap.Error(err))
		return
	}

	h.mu.Lock()
	callbacks := make([]func([]models.Story), 0, len(h.subs))
	for _, fn := range h.subs {
		callbacks = append(callbacks, fn)
	}
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn(stories)
	}
}
