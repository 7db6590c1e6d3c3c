package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/voiceroom/internal/core"
	"github.com/dkeye/voiceroom/internal/domain"
)

func TestFeed_FanOut(t *testing.T) {
	f := NewFeed("s1", nil)
	a, cancelA := f.Subscribe()
	b, cancelB := f.Subscribe()
	defer cancelB()
	assert.Equal(t, 2, f.Subscribers())

	f.Notify(nil, core.ConnectionStateChanged{State: domain.Connected})
	want := Event{Type: EventConnectionState, Session: "s1", State: "connected", Reason: domain.ReasonClientRequested.String()}
	assert.Equal(t, want, <-a)
	assert.Equal(t, want, <-b)

	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, f.Subscribers())
	cancelA()
}

func TestFeed_DropsWhenFull(t *testing.T) {
	f := NewFeed("s1", nil)
	ch, cancel := f.Subscribe()
	defer cancel()

	for range subscriberBuffer + 3 {
		f.Publish(Event{Type: EventMessage})
	}
	assert.Equal(t, uint64(3), f.Dropped())
	assert.Len(t, ch, subscriberBuffer)
}

func TestFeed_StrictPolicy(t *testing.T) {
	f := NewFeed("s1", StrictPolicy{})
	ch, cancel := f.Subscribe()
	defer cancel()

	for range subscriberBuffer + 1 {
		f.Publish(Event{Type: EventMessage})
	}
	assert.Equal(t, uint64(1), f.Dropped())
	assert.Zero(t, f.Subscribers())

	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, subscriberBuffer, n)
}

func TestFeed_Close(t *testing.T) {
	f := NewFeed("s1", nil)
	ch, cancel := f.Subscribe()
	f.Close()
	f.Close()

	_, open := <-ch
	assert.False(t, open)
	cancel()
	f.Publish(Event{Type: EventMessage})
	assert.Zero(t, f.Subscribers())
}

func TestEventOf(t *testing.T) {
	cases := map[string]struct {
		in   core.Notification
		want Event
	}{
		"state": {
			in:   core.ConnectionStateChanged{State: domain.Disconnected, Reason: domain.ReasonConnectionLost},
			want: Event{Type: EventConnectionState, State: domain.Disconnected.String(), Reason: domain.ReasonConnectionLost.String()},
		},
		"room data": {
			in:   core.RoomUserDataChanged{Data: []byte("topic")},
			want: Event{Type: EventRoomUserData, Data: []byte("topic")},
		},
		"message": {
			in:   core.MessageReceived{SenderID: 4, Data: []byte("hi")},
			want: Event{Type: EventMessage, PeerID: 4, Data: []byte("hi")},
		},
		"peer without details": {
			in:   core.PeerLeft{},
			want: Event{Type: EventPeerLeft},
		},
		"media without details": {
			in:   core.MediaRemoved{},
			want: Event{Type: EventMediaRemoved},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, EventOf(tc.in))
		})
	}

	ev := EventOf(core.MediaActiveStateChanged{Active: true})
	require.NotNil(t, ev.Active)
	assert.True(t, *ev.Active)
	assert.Equal(t, EventMediaActive, ev.Type)
}
