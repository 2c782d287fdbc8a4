package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabegame/kabegame-sub003/internal/events"
	"github.com/kabegame/kabegame-sub003/internal/subscription"
)

func TestSubscribeDeliversEvents(t *testing.T) {
	b := events.New(0)
	defer b.Close()
	m := subscription.New(b)

	ch := m.Subscribe("client-1", events.TaskLog)
	b.Publish(events.TaskLog, "hi")

	select {
	case ev := <-ch:
		assert.Equal(t, events.TaskLog, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestSubscribeReplacesPriorSubscriptionForSameClient(t *testing.T) {
	b := events.New(0)
	defer b.Close()
	m := subscription.New(b)

	first := m.Subscribe("client-1", events.TaskLog)
	second := m.Subscribe("client-1", events.TaskError)

	_, firstOpen := <-first
	assert.False(t, firstOpen, "replacing a subscription must close the old channel")

	b.Publish(events.TaskError, "boom")
	select {
	case ev := <-second:
		assert.Equal(t, events.TaskError, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestUnsubscribeReportsExistence(t *testing.T) {
	b := events.New(0)
	defer b.Close()
	m := subscription.New(b)

	assert.False(t, m.Unsubscribe("ghost"))

	m.Subscribe("client-1", events.TaskLog)
	assert.True(t, m.Unsubscribe("client-1"))
	assert.False(t, m.Unsubscribe("client-1"))
}

func TestGetSubscriptionAndActiveCount(t *testing.T) {
	b := events.New(0)
	defer b.Close()
	m := subscription.New(b)

	_, ok := m.GetSubscription("client-1")
	assert.False(t, ok)

	m.Subscribe("client-1", events.TaskLog, events.TaskError)
	kinds, ok := m.GetSubscription("client-1")
	require.True(t, ok)
	assert.ElementsMatch(t, []events.Kind{events.TaskLog, events.TaskError}, kinds)
	assert.Equal(t, 1, m.ActiveCount())
}

func TestClearAllTearsDownEverySubscription(t *testing.T) {
	b := events.New(0)
	defer b.Close()
	m := subscription.New(b)

	ch1 := m.Subscribe("client-1", events.TaskLog)
	ch2 := m.Subscribe("client-2", events.TaskError)

	m.ClearAll()

	_, open1 := <-ch1
	_, open2 := <-ch2
	assert.False(t, open1)
	assert.False(t, open2)
	assert.Equal(t, 0, m.ActiveCount())
}
