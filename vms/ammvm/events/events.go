// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package events carries the notifications emitted by pools and the
// registry from the state transition that produced them to the
// subscribers that index or measure them.
package events

import (
	"sync"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// Event is a notification emitted by a component at a given address.
type Event interface {
	// Emitter is the address of the pool or registry that emitted the event.
	Emitter() ids.ShortID
	// Name is the event's canonical name, e.g. "LiquidityAdded".
	Name() string
}

// Sink accepts emitted events.
type Sink interface {
	Emit(Event)
}

// Log buffers events until the operation that produced them commits.
type Log struct {
	events []Event
}

func (l *Log) Emit(e Event) {
	l.events = append(l.events, e)
}

// Len returns the number of buffered events.
func (l *Log) Len() int {
	return len(l.events)
}

// Drain returns the buffered events in emission order and empties the log.
func (l *Log) Drain() []Event {
	events := l.events
	l.events = nil
	return events
}

// Discard drops every buffered event.
func (l *Log) Discard() {
	l.events = nil
}

// Subscriber consumes committed events.
type Subscriber interface {
	Notify(Event)
}

// SubscriberFunc adapts a function to a Subscriber.
type SubscriberFunc func(Event)

func (f SubscriberFunc) Notify(e Event) {
	f(e)
}

// Dispatcher fans committed events out to its subscribers.
type Dispatcher struct {
	log log.Logger

	lock        sync.RWMutex
	subscribers []Subscriber
}

func NewDispatcher(logger log.Logger) *Dispatcher {
	return &Dispatcher{log: logger}
}

// Subscribe registers s for every event dispatched after this call.
func (d *Dispatcher) Subscribe(s Subscriber) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.subscribers = append(d.subscribers, s)
}

// Dispatch delivers events, in order, to every subscriber.
func (d *Dispatcher) Dispatch(events []Event) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	for _, e := range events {
		d.log.Debug("dispatching event",
			log.String("name", e.Name()),
			log.Stringer("emitter", e.Emitter()),
		)
		for _, s := range d.subscribers {
			s.Notify(e)
		}
	}
}
