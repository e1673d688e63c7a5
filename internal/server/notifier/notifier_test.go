package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_SubscribeUnsubscribe(t *testing.T) {
	n := New[string]()

	ch := n.Subscribe()
	require.NotNil(t, ch)
	assert.Equal(t, 1, n.Len())

	n.Unsubscribe(ch)
	assert.Equal(t, 0, n.Len())

	_, open := <-ch
	assert.False(t, open, "channel is closed on unsubscribe")
}

func TestNotifier_Broadcast(t *testing.T) {
	n := New[string]()

	ch1 := n.Subscribe()
	ch2 := n.Subscribe()
	defer n.Unsubscribe(ch1)
	defer n.Unsubscribe(ch2)

	assert.Equal(t, 2, n.Broadcast("saved"))

	for i, ch := range []chan string{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, "saved", got)
		case <-time.After(100 * time.Millisecond):
			t.Errorf("ch%d did not receive broadcast", i+1)
		}
	}
}

func TestNotifier_BroadcastNonBlocking(t *testing.T) {
	n := NewWithBuffer[int](1)

	ch := n.Subscribe()
	defer n.Unsubscribe(ch)

	// Fill the channel buffer
	ch <- 1

	done := make(chan int)
	go func() {
		done <- n.Broadcast(2)
	}()

	select {
	case delivered := <-done:
		assert.Equal(t, 0, delivered)
	case <-time.After(100 * time.Millisecond):
		t.Error("Broadcast blocked on full channel")
	}
	assert.Equal(t, 1, <-ch)
}

func TestNotifier_NoSubscribers(t *testing.T) {
	n := New[int]()
	assert.Equal(t, 0, n.Broadcast(1))
}

func TestNotifier_Concurrent(t *testing.T) {
	n := New[int]()

	var wg sync.WaitGroup
	const numGoroutines = 10

	for i := range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := n.Subscribe()
			n.Broadcast(i)
			n.Unsubscribe(ch)
		}()
	}

	wg.Wait()
	assert.Equal(t, 0, n.Len())
}
