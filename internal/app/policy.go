package app

type BackpressureAction int

const (
	DropEvent BackpressureAction = iota
	DropSubscriber
)

// Policy decides what happens when a subscriber's buffer is full.
type Policy interface {
	OnBackpressure(sid SessionID, ev Event) BackpressureAction
}

// SimplePolicy drops the event and keeps the subscriber.
type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(SessionID, Event) BackpressureAction { return DropEvent }

// StrictPolicy disconnects subscribers that fall behind.
type StrictPolicy struct{}

func (StrictPolicy) OnBackpressure(SessionID, Event) BackpressureAction { return DropSubscriber }
