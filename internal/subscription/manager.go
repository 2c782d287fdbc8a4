// Package subscription is the SubscriptionManager (spec §4.8): per-client
// event subscription state with replace semantics, built on top of
// internal/events's per-subscriber channel. Grounded on
// core/src/ipc/server/subscription_manager.rs, whose cancel-broadcast +
// forwarder-per-kind dance internal/events.Subscription already
// implements internally — this package only needs to track "client id ->
// current Subscription" and enforce the replace-on-resubscribe rule.
package subscription

import (
	"sync"

	"github.com/kabegame/kabegame-sub003/internal/events"
)

// Manager maps client id to its current event subscription.
type Manager struct {
	broadcaster *events.Broadcaster

	mu   sync.Mutex
	subs map[string]*events.Subscription
}

// New creates a Manager delivering events from broadcaster.
func New(broadcaster *events.Broadcaster) *Manager {
	return &Manager{broadcaster: broadcaster, subs: make(map[string]*events.Subscription)}
}

// Subscribe replaces any existing subscription for clientID with a new one
// over kinds (every kind, if empty) and returns its event channel.
func (m *Manager) Subscribe(clientID string, kinds ...events.Kind) <-chan events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.subs[clientID]; ok {
		prev.Unsubscribe()
	}
	sub := m.broadcaster.Subscribe(kinds...)
	m.subs[clientID] = sub
	return sub.Events()
}

// UpdateSubscription is Subscribe under another name: subscribing again
// always replaces the previous registration.
func (m *Manager) UpdateSubscription(clientID string, kinds ...events.Kind) <-chan events.Event {
	return m.Subscribe(clientID, kinds...)
}

// Unsubscribe tears down clientID's subscription, if any, reporting
// whether one existed.
func (m *Manager) Unsubscribe(clientID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[clientID]
	if !ok {
		return false
	}
	sub.Unsubscribe()
	delete(m.subs, clientID)
	return true
}

// GetSubscription returns the kinds clientID is currently subscribed to,
// and whether any subscription exists.
func (m *Manager) GetSubscription(clientID string) ([]events.Kind, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[clientID]
	if !ok {
		return nil, false
	}
	return sub.Kinds(), true
}

// ActiveCount returns the number of clients with a live subscription.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// ClearAll tears down every active subscription, e.g. on server shutdown.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sub := range m.subs {
		sub.Unsubscribe()
		delete(m.subs, id)
	}
}
