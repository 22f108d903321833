package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecal/lifecal-api/internal/models"
	"github.com/lifecal/lifecal-api/pkg/jobs"
)

func TestHubPublishReachesOwnersSessionsOnly(t *testing.T) {
	hub := NewHub(4, nil)
	alice1 := hub.Subscribe(1)
	alice2 := hub.Subscribe(1)
	bob := hub.Subscribe(2)

	events := []models.Event{{ID: 1, UserID: 1, Title: "Team Meeting"}}
	hub.Publish(1, events)

	for _, sub := range []*Subscriber{alice1, alice2} {
		select {
		case got := <-sub.Updates():
			require.Len(t, got, 1)
			assert.Equal(t, "Team Meeting", got[0].Title)
		case <-time.After(time.Second):
			t.Fatal("expected a snapshot")
		}
	}

	select {
	case <-bob.Updates():
		t.Fatal("bob must not receive alice's events")
	default:
	}
}

func TestHubSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub(1, nil)
	sub := hub.Subscribe(1)

	done := make(chan struct{})
	go func() {
		// Channel holds one snapshot; further publishes must drop.
		hub.Publish(1, []models.Event{{ID: 1}})
		hub.Publish(1, []models.Event{{ID: 2}})
		hub.Publish(1, []models.Event{{ID: 3}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	got := <-sub.Updates()
	assert.Equal(t, int64(1), got[0].ID)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(4, nil)
	sub := hub.Subscribe(1)
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // idempotent

	_, open := <-sub.Updates()
	assert.False(t, open)
	assert.Zero(t, hub.SubscriberCount(1))
}

type listerStub struct {
	events []models.Event
}

func (s listerStub) ListByOwner(ctx context.Context, userID int64) ([]models.Event, error) {
	return s.events, nil
}

func TestBroadcasterPushesFullList(t *testing.T) {
	hub := NewHub(4, nil)
	sub := hub.Subscribe(1)

	b := NewBroadcaster(hub, listerStub{events: []models.Event{{ID: 1, Title: "Wake Up"}, {ID: 2, Title: "Breakfast"}}}, jobs.QueueConfig{Workers: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)
	defer b.Stop()

	b.Broadcast(1)

	select {
	case got := <-sub.Updates():
		require.Len(t, got, 2)
		assert.Equal(t, "Wake Up", got[0].Title)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast snapshot")
	}
}

func TestBroadcasterSkipsOwnersWithoutSessions(t *testing.T) {
	hub := NewHub(4, nil)
	b := NewBroadcaster(hub, listerStub{}, jobs.QueueConfig{Workers: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)
	defer b.Stop()

	// No subscribers registered: must be a no-op, not a panic.
	b.Broadcast(7)
}
