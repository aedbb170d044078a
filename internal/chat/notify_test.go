package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkup-chat/internal/chat"
)

func TestUnreadNotifier_NotifiesOnTransitionsOnly(t *testing.T) {
	n := chat.NewUnreadNotifier()
	ch, cancel := n.Subscribe()
	defer cancel()

	n.Set(true)
	select {
	case v := <-ch:
		assert.True(t, v)
	default:
		t.Fatal("expected a transition to true")
	}

	// Same value again: no delivery.
	n.Set(true)
	select {
	case <-ch:
		t.Fatal("unexpected delivery for a non-transition")
	default:
	}

	n.Clear()
	select {
	case v := <-ch:
		assert.False(t, v)
	default:
		t.Fatal("expected a transition to false")
	}
}

func TestUnreadNotifier_CoalescesToLatestValue(t *testing.T) {
	n := chat.NewUnreadNotifier()
	ch, cancel := n.Subscribe()
	defer cancel()

	// Two transitions before the subscriber reads: only the latest survives.
	n.Set(true)
	n.Set(false)

	v := <-ch
	assert.False(t, v)
	select {
	case <-ch:
		t.Fatal("stale value should have been coalesced away")
	default:
	}
}

func TestUnreadNotifier_CloseShutsDownSubscribers(t *testing.T) {
	n := chat.NewUnreadNotifier()
	ch, cancel := n.Subscribe()
	defer cancel()

	n.Set(true)
	n.Close()

	// Drain the buffered transition, then observe the close.
	<-ch
	_, ok := <-ch
	assert.False(t, ok)
	assert.False(t, n.Value(), "signal resets on close, never persisted")

	// Subscriptions after close are immediately closed streams.
	late, lateCancel := n.Subscribe()
	defer lateCancel()
	_, ok = <-late
	require.False(t, ok)
}

func TestUnreadNotifier_CancelIsIdempotent(t *testing.T) {
	n := chat.NewUnreadNotifier()
	_, cancel := n.Subscribe()
	cancel()
	cancel()
	n.Set(true) // must not panic on a removed subscriber
}
