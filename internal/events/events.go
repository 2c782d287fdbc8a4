// Package events is the Event Broadcaster (spec §4.8): a per-kind,
// reference-counted fan-out of daemon events with a monotonically
// increasing id assigned at publish time, modeled closely on
// core/src/ipc/server/event_broadcaster.rs's single sync-producer queue
// plus one broadcast channel per DaemonEventKind.
package events

import (
	"encoding/json"
	"sync"
)

// Kind identifies the category of a DaemonEvent.
type Kind int

const (
	TaskLog Kind = iota
	TaskStatus
	TaskProgress
	TaskError
	DownloadState
	AlbumAdded
	ImagesChange
	DedupeProgress
	DedupeFinished
	Generic

	kindCount
)

func (k Kind) String() string {
	switch k {
	case TaskLog:
		return "TaskLog"
	case TaskStatus:
		return "TaskStatus"
	case TaskProgress:
		return "TaskProgress"
	case TaskError:
		return "TaskError"
	case DownloadState:
		return "DownloadState"
	case AlbumAdded:
		return "AlbumAdded"
	case ImagesChange:
		return "ImagesChange"
	case DedupeProgress:
		return "DedupeProgress"
	case DedupeFinished:
		return "DedupeFinished"
	case Generic:
		return "Generic"
	default:
		return "Unknown"
	}
}

// WireName returns the kebab-case event name used on the wire for a
// pushed event envelope's "event" field (spec §6/§4.8), distinct from
// String's PascalCase form used for SubscribeEvents kind names.
func (k Kind) WireName() string {
	switch k {
	case TaskLog:
		return "task-log"
	case TaskStatus:
		return "task-status"
	case TaskProgress:
		return "task-progress"
	case TaskError:
		return "task-error"
	case DownloadState:
		return "download-state"
	case AlbumAdded:
		return "album-added"
	case ImagesChange:
		return "images-change"
	case DedupeProgress:
		return "dedupe-progress"
	case DedupeFinished:
		return "dedupe-finished"
	case Generic:
		return "generic"
	default:
		return "unknown"
	}
}

// AllKinds lists every concrete event kind, in declaration order. Used to
// size the broadcaster's per-kind channel slice and by subscribers that
// want "everything".
var AllKinds = []Kind{
	TaskLog, TaskStatus, TaskProgress, TaskError, DownloadState,
	AlbumAdded, ImagesChange, DedupeProgress, DedupeFinished, Generic,
}

// Event is one published, reference-counted payload. Payload is whatever
// the producer passed to Publish; Generic events carry their own {event,
// payload} envelope inside Payload instead of a typed struct, matching
// spec §4.8's "catch-all Generic{event, payload}" kind.
type Event struct {
	ID      uint64
	Kind    Kind
	Payload any
}

// MarshalJSON renders an Event as {id, kind, payload}. IPC event pushes
// do not use this shape; they wrap events in an ipc.EventEnvelope
// {id, event, payload}.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID      uint64 `json:"id"`
		Kind    string `json:"kind"`
		Payload any    `json:"payload"`
	}{ID: e.ID, Kind: e.Kind.String(), Payload: e.Payload})
}

// subscriberChanSize bounds each per-kind fan-out channel; a subscriber
// that falls behind drops the oldest pending event rather than blocking
// the forwarder.
const subscriberChanSize = 1024

type subscriber struct {
	ch chan Event
}

// Broadcaster is the process-wide event bus. The zero value is not usable;
// construct with New. A single forwarder goroutine drains the producer
// queue so synchronous call sites (storage mutators, the dedupe service)
// can publish without ever blocking on a slow subscriber.
type Broadcaster struct {
	mu          sync.Mutex
	nextID      uint64
	subscribers [kindCount]map[int]*subscriber
	nextSubID   int

	queue  chan Event
	closed chan struct{}
	once   sync.Once
}

// New creates a Broadcaster and starts its forwarder goroutine. queueSize
// bounds the producer-side queue; 0 picks a sensible default.
func New(queueSize int) *Broadcaster {
	if queueSize <= 0 {
		queueSize = 4096
	}
	b := &Broadcaster{
		queue:  make(chan Event, queueSize),
		closed: make(chan struct{}),
	}
	for i := range b.subscribers {
		b.subscribers[i] = make(map[int]*subscriber)
	}
	go b.forward()
	return b
}

// Publish enqueues an event of the given kind for delivery. It never
// blocks the caller beyond filling the bounded producer queue; a full
// queue drops the event (a pathological producer outrunning the
// forwarder), matching the original's "producers do not block" intent.
func (b *Broadcaster) Publish(kind Kind, payload any) {
	select {
	case b.queue <- Event{Kind: kind, Payload: payload}:
	default:
	}
}

// forward is the sole goroutine that assigns ids and fans events out to
// per-kind subscriber channels. It runs for the Broadcaster's lifetime.
func (b *Broadcaster) forward() {
	for {
		select {
		case ev := <-b.queue:
			b.mu.Lock()
			ev.ID = b.nextID
			b.nextID++
			subs := b.subscribers[ev.Kind]
			for _, sub := range subs {
				select {
				case sub.ch <- ev:
				default:
					// Slow subscriber: drop the oldest queued event to make
					// room rather than block the forwarder.
					select {
					case <-sub.ch:
					default:
					}
					select {
					case sub.ch <- ev:
					default:
					}
				}
			}
			b.mu.Unlock()
		case <-b.closed:
			return
		}
	}
}

// Close stops the forwarder goroutine and closes every live subscriber
// channel. Safe to call more than once.
func (b *Broadcaster) Close() {
	b.once.Do(func() {
		close(b.closed)
		b.mu.Lock()
		defer b.mu.Unlock()
		seen := make(map[*subscriber]bool)
		for _, subs := range b.subscribers {
			for _, sub := range subs {
				if !seen[sub] {
					seen[sub] = true
					close(sub.ch)
				}
			}
		}
	})
}

// Subscription is a live registration returned by Subscribe; the caller
// reads from Events() until Unsubscribe is called or the broadcaster is
// closed.
type Subscription struct {
	b      *Broadcaster
	kinds  []Kind
	id     int
	events chan Event
}

// Events returns the channel events of the subscribed kinds arrive on,
// tagged with their assigned id, in publish order per kind (interleaving
// across kinds is arbitrary, per spec §4.8).
func (s *Subscription) Events() <-chan Event { return s.events }

// Kinds returns the event kinds this subscription was registered for.
func (s *Subscription) Kinds() []Kind {
	out := make([]Kind, len(s.kinds))
	copy(out, s.kinds)
	return out
}

// Unsubscribe tears the subscription down and closes Events().
func (s *Subscription) Unsubscribe() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	for _, k := range s.kinds {
		delete(s.b.subscribers[k], s.id)
	}
	close(s.events)
}

// Subscribe registers interest in the given kinds (ALL kinds if empty) and
// returns a Subscription whose Events() channel receives every matching
// event published from this point forward.
func (b *Broadcaster) Subscribe(kinds ...Kind) *Subscription {
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSubID
	b.nextSubID++
	ch := make(chan Event, subscriberChanSize)
	sub := &subscriber{ch: ch}
	for _, k := range kinds {
		b.subscribers[k][id] = sub
	}
	return &Subscription{b: b, kinds: kinds, id: id, events: ch}
}

// ReceiverCount reports how many live subscriptions are registered for
// kind.
func (b *Broadcaster) ReceiverCount(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[kind])
}

// LatestID returns the id that would be assigned to the next published
// event, minus one; 0 if nothing has been published yet.
func (b *Broadcaster) LatestID() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nextID == 0 {
		return 0
	}
	return b.nextID - 1
}
