package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/rockquest/rockquest-backend/internal/database"
	"github.com/rockquest/rockquest-backend/internal/models"
)

// UnlockEvent is the payload broadcast over Redis and WebSocket when a user
// earns an achievement.
type UnlockEvent struct {
	Type          string    `json:"type"`
	UserID        string    `json:"userId"`
	AchievementID string    `json:"achievementId"`
	Title         string    `json:"title"`
	Badge         string    `json:"badge,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

const EventTypeAchievementUnlocked = "achievement_unlocked"

// notifyHub fans Redis-delivered events out to this instance's WebSocket
// connections, keyed by user.
type notifyHub struct {
	mu          sync.RWMutex
	subscribers map[string][]chan UnlockEvent
}

var (
	hub                = &notifyHub{subscribers: make(map[string][]chan UnlockEvent)}
	notifyRedisStarted sync.Once
)

// SubscribeUnlockEvents registers a listener for one user's unlock events.
// The returned function unsubscribes and closes the channel.
func SubscribeUnlockEvents(userID string) (<-chan UnlockEvent, func()) {
	ch := make(chan UnlockEvent, 8)

	hub.mu.Lock()
	hub.subscribers[userID] = append(hub.subscribers[userID], ch)
	hub.mu.Unlock()

	unsubscribe := func() {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		subs := hub.subscribers[userID]
		for i, c := range subs {
			if c == ch {
				hub.subscribers[userID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
		if len(hub.subscribers[userID]) == 0 {
			delete(hub.subscribers, userID)
		}
	}
	return ch, unsubscribe
}

// fanOutUnlockEvent delivers an event to local subscribers; slow consumers
// are skipped rather than blocking the subscriber loop.
func fanOutUnlockEvent(event UnlockEvent) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for _, ch := range hub.subscribers[event.UserID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishUnlockEvent publishes an unlock to Redis so every instance can fan
// it out to its connected clients. Best effort: failures are logged only.
func PublishUnlockEvent(ctx context.Context, userID string, a models.Achievement) {
	event := UnlockEvent{
		Type:          EventTypeAchievementUnlocked,
		UserID:        userID,
		AchievementID: a.ID.Hex(),
		Title:         a.Title,
		Badge:         a.Badge,
		Timestamp:     time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal unlock event: %v", err)
		return
	}
	if err := database.RedisClient.Publish(ctx, "notify:user:"+userID, data).Err(); err != nil {
		log.Printf("failed to publish unlock event: %v", err)
	}
}

// StartUnlockSubscriber ensures a single shared Redis listener per instance.
func StartUnlockSubscriber(ctx context.Context) {
	notifyRedisStarted.Do(func() {
		go runUnlockSubscriber(ctx)
	})
}

func runUnlockSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; unlock subscriber not started")
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
			pubsub := client.PSubscribe(ctx, "notify:user:*")
			defer pubsub.Close()

			log.Println("✅ Unlock notification subscriber started (pattern: notify:user:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event UnlockEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal unlock event: %v", err)
					continue
				}

				fanOutUnlockEvent(event)
			}
		}()
	}
}
