package events

import (
	"sync/atomic"

	"github.com/kelindar/event"
)

// Subscription groups the channel subscriptions of one SSE client.
type Subscription struct {
	bus     *Bus
	ch      chan<- any
	unsubs  []func()
	dropped atomic.Int64
}

// NewSubscription forwards nothing until types are added with Forward.
func NewSubscription(bus *Bus, ch chan<- any) *Subscription {
	return &Subscription{bus: bus, ch: ch}
}

// Forward sends every T published on the bus to the subscription channel.
// keep, when non-nil, filters events. A full channel drops the event.
func Forward[T Event](s *Subscription, keep func(T) bool) {
	s.unsubs = append(s.unsubs, event.Subscribe(s.bus.dispatcher, func(e T) {
		if keep != nil && !keep(e) {
			return
		}
		select {
		case s.ch <- e:
		default:
			s.dropped.Add(1)
		}
	}))
}

// Dropped is the number of events lost to a full channel.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close removes every subscription.
func (s *Subscription) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

// SubscribeToChannel forwards T events to ch and returns the unsubscribe
// function.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	s := NewSubscription(bus, ch)
	Forward[T](s, nil)
	return s.Close
}
