// Package events provides a simple publish-subscribe mechanism for event handling.
package events

import (
	"sync"
)

type Event comparable

var (
	subscriptions   = make(map[any]map[uint64]func(any))
	subscriptionsMu sync.RWMutex
	nextSubID       uint64
)

// Subscription allows unsubscribing from an event.
type Subscription[T Event] struct {
	// distinct per subscriber; a zero-size handle would alias every subscription of the
	// same event type to one map key
	id uint64
}

func Subscribe[T Event](callback func(evt T)) *Subscription[T] {
	subscriptionsMu.Lock()
	defer subscriptionsMu.Unlock()
	var evt T
	if subscriptions[evt] == nil {
		subscriptions[evt] = make(map[uint64]func(any))
	}
	nextSubID++
	sub := &Subscription[T]{id: nextSubID}
	subscriptions[evt][sub.id] = func(e any) { callback(e.(T)) }
	return sub
}

// Unsubscribe removes the given subscription.
func Unsubscribe[T Event](sub *Subscription[T]) {
	subscriptionsMu.Lock()
	defer subscriptionsMu.Unlock()
	var evt T
	if subs, ok := subscriptions[evt]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(subscriptions, evt)
		}
	}
}

// Emit notifies all subscribers of the event, passing event data.
// Callbacks are invoked asynchronously in separate goroutines.
func Emit[T Event](evt T) {
	subscriptionsMu.RLock()
	defer subscriptionsMu.RUnlock()
	var e T
	if subs, ok := subscriptions[e]; ok {
		for _, cb := range subs {
			go cb(evt)
		}
	}
}
