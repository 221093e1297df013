package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/kata-app/kata-backend/internal/database"
)

// Feed event types.
const (
	EventContributionCreated = "contribution_created"
	EventLikeUpdated         = "like_updated"
)

const feedChannel = "feed:events"

// FeedEvent is the payload broadcast over Redis and WebSocket when the
// contribution feed changes.
type FeedEvent struct {
	Type           string    `json:"type"`
	ContributionID string    `json:"contribution_id"`
	UserID         string    `json:"user_id,omitempty"`
	Likes          int       `json:"likes,omitempty"`
	Liked          bool      `json:"liked,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

// feedHub is a registry of local websocket subscribers fed by the Redis
// subscriber.
type feedHub struct {
	mu      sync.Mutex
	subs    map[int]chan FeedEvent
	nextSub int
}

var (
	hub          = &feedHub{subs: make(map[int]chan FeedEvent)}
	redisStarted sync.Once
)

// Subscribe registers a local feed listener. The returned cancel func removes
// the subscription and closes the channel.
func Subscribe() (<-chan FeedEvent, func()) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	id := hub.nextSub
	hub.nextSub++
	ch := make(chan FeedEvent, 16)
	hub.subs[id] = ch

	cancel := func() {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		if c, ok := hub.subs[id]; ok {
			delete(hub.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func fanOut(event FeedEvent) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for _, ch := range hub.subs {
		select {
		case ch <- event:
		default:
			// Slow consumer; drop rather than block the fan-out.
		}
	}
}

// StartRedisFeedSubscriber ensures a single shared Redis listener per
// instance.
func StartRedisFeedSubscriber(ctx context.Context) {
	redisStarted.Do(func() {
		go runRedisSubscriber(ctx)
	})
}

func runRedisSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; feed subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.Subscribe(ctx, feedChannel)
			defer pubsub.Close()

			log.Printf("✅ Feed Redis subscriber started (channel: %s)", feedChannel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis feed subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal feed event: %v", err)
					continue
				}

				fanOut(event)
			}
		}()
	}
}

// PublishFeedEvent publishes an event to Redis so every instance fans it out
// to its connected clients. Best-effort: feed events are advisory and a
// failure must not fail the originating request.
func PublishFeedEvent(ctx context.Context, event FeedEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, feedChannel, data).Err()
}
