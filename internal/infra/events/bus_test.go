package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu  sync.Mutex
	got []Envelope
}

func (s *recordingSink) Publish(e Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
}

func TestBus_DeliversToSubscribersAndSinks(t *testing.T) {
	sink := &recordingSink{}
	bus := NewBus(zap.NewNop(), sink)

	var received []GuestIDSetPayload
	bus.Subscribe(EventGuestIDSet, func(e Envelope) {
		p, err := Decode[GuestIDSetPayload](e)
		require.NoError(t, err)
		received = append(received, p)
	})
	var other int
	bus.Subscribe(EventOrderPlaced, func(Envelope) { other++ })

	bus.Publish(EventGuestIDSet, "sess-1", GuestIDSetPayload{GuestID: "g-1"})

	require.Len(t, received, 1)
	assert.Equal(t, "g-1", received[0].GuestID)
	assert.Equal(t, 0, other)

	require.Len(t, sink.got, 1)
	assert.Equal(t, EventGuestIDSet, sink.got[0].EventType)
	assert.Equal(t, "sess-1", sink.got[0].SessionID)
	assert.NotEmpty(t, sink.got[0].EventID)
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())
	assert.NotPanics(t, func() {
		bus.Publish(EventHoldExpired, "", HoldExpiredPayload{Mode: "checkout", Step: 2})
	})
}
