package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUnlockEventFanOut(t *testing.T) {
	ch, unsubscribe := SubscribeUnlockEvents("user-1")
	defer unsubscribe()

	fanOutUnlockEvent(UnlockEvent{
		Type:      EventTypeAchievementUnlocked,
		UserID:    "user-1",
		Title:     "First Scan",
		Timestamp: time.Now().UTC(),
	})

	select {
	case got := <-ch:
		require.Equal(t, EventTypeAchievementUnlocked, got.Type)
		require.Equal(t, "First Scan", got.Title)
	case <-time.After(time.Second):
		t.Fatal("expected an unlock event")
	}
}

func TestUnlockEventFanOutIsScopedToUser(t *testing.T) {
	ch, unsubscribe := SubscribeUnlockEvents("user-2")
	defer unsubscribe()

	fanOutUnlockEvent(UnlockEvent{
		Type:   EventTypeAchievementUnlocked,
		UserID: "someone-else",
	})

	select {
	case <-ch:
		t.Fatal("event leaked to another user's subscription")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	ch, unsubscribe := SubscribeUnlockEvents("user-3")
	unsubscribe()

	_, open := <-ch
	require.False(t, open)
}
