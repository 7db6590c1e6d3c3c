package app

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voiceroom/internal/core"
)

const subscriberBuffer = 64

// Feed fans the notifications of one session out to any number of
// subscribers. Publishing never blocks; the policy decides what a
// subscriber that falls behind loses.
type Feed struct {
	id     SessionID
	policy Policy

	mu     sync.RWMutex
	subs   []chan Event
	closed bool

	dropped atomic.Uint64
}

var _ core.Delegate = (*Feed)(nil)

// NewFeed returns a feed; a nil policy means SimplePolicy.
func NewFeed(id SessionID, policy Policy) *Feed {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Feed{id: id, policy: policy}
}

func (f *Feed) Notify(_ *core.RoomSession, n core.Notification) {
	ev := EventOf(n)
	ev.Session = f.id
	f.Publish(ev)
}

func (f *Feed) Publish(ev Event) {
	var slow []chan Event
	f.mu.RLock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			f.dropped.Add(1)
			action := f.policy.OnBackpressure(f.id, ev)
			log.Warn().Str("module", "app.feed").Str("sid", string(f.id)).Str("type", ev.Type).Int("action", int(action)).Msg("subscriber backpressure")
			if action == DropSubscriber {
				slow = append(slow, ch)
			}
		}
	}
	f.mu.RUnlock()

	for _, ch := range slow {
		f.unsubscribe(ch)
	}
}

// Subscribe returns a channel of future events and the function that ends
// the subscription. The channel is closed by cancel or when the feed is
// closed.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	f.subs = append(f.subs, ch)
	return ch, func() { f.unsubscribe(ch) }
}

func (f *Feed) unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sub := range f.subs {
		if sub == ch {
			close(sub)
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func (f *Feed) Dropped() uint64 { return f.dropped.Load() }

func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}
