package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakePresence struct {
	mu      sync.Mutex
	online  []uuid.UUID
	offline []uuid.UUID
	order   []bool

	onlineDelay time.Duration
}

func (f *fakePresence) HandleOnline(_ context.Context, userID uuid.UUID) {
	time.Sleep(f.onlineDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = append(f.online, userID)
	f.order = append(f.order, true)
}

func (f *fakePresence) HandleOffline(_ context.Context, userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = append(f.offline, userID)
	f.order = append(f.order, false)
}

func (f *fakePresence) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.online), len(f.offline)
}

func (f *fakePresence) transitions() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.order...)
}

func TestHubPresenceTransitions(t *testing.T) {
	registry := NewRegistry()
	presence := &fakePresence{}
	hub := NewHub(registry, presence, nil)

	userID := uuid.New()
	laptop := newTestClient(userID)
	phone := newTestClient(userID)
	laptop.hub = hub
	phone.hub = hub

	hub.Connect(laptop)
	hub.Connect(phone)

	// Only the first connection triggers the online transition.
	assert.Eventually(t, func() bool {
		on, _ := presence.counts()
		return on == 1
	}, time.Second, 10*time.Millisecond)

	hub.Disconnect(laptop)
	on, off := presence.counts()
	assert.Equal(t, 1, on)
	assert.Equal(t, 0, off)
	assert.True(t, registry.IsOnline(userID))

	// Closing the last connection twice (disconnect event plus socket
	// error) still yields a single offline transition.
	phone.close()
	phone.close()

	assert.Eventually(t, func() bool {
		_, off := presence.counts()
		return off == 1
	}, time.Second, 10*time.Millisecond)
	assert.False(t, registry.IsOnline(userID))

	_, off = presence.counts()
	assert.Equal(t, 1, off)
}

func TestHubPresenceTransitionOrdering(t *testing.T) {
	registry := NewRegistry()
	presence := &fakePresence{onlineDelay: 20 * time.Millisecond}
	hub := NewHub(registry, presence, nil)

	userID := uuid.New()
	c := newTestClient(userID)
	c.hub = hub

	// A connect chased by an immediate last-connection disconnect must
	// reach the coordinator as online then offline even when the online
	// update is slow, never reversed.
	for i := 0; i < 3; i++ {
		hub.Connect(c)
		hub.Disconnect(c)
	}

	assert.Eventually(t, func() bool {
		on, off := presence.counts()
		return on == 3 && off == 3
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []bool{true, false, true, false, true, false}, presence.transitions())
	assert.False(t, registry.IsOnline(userID))
}
