package mailbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_FIFOAndTryRecv(t *testing.T) {
	t.Parallel()
	m := New[int]()

	_, status := m.TryRecv()
	assert.Equal(t, Empty, status)

	for i := range 3 {
		require.NoError(t, m.Send(i))
	}
	assert.Equal(t, 3, m.Len())

	for want := range 3 {
		got, status := m.TryRecv()
		require.Equal(t, Received, status)
		assert.Equal(t, want, got)
	}
}

func TestMailbox_CloseDeliversQueuedThenReportsClosed(t *testing.T) {
	t.Parallel()
	// Arrange
	m := New[string]()
	require.NoError(t, m.Send("a"))

	// Act
	m.Close()
	m.Close()

	// Assert
	assert.ErrorIs(t, m.Send("b"), ErrClosed)
	v, ok := m.Recv()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	_, ok = m.Recv()
	assert.False(t, ok)
	_, status := m.TryRecv()
	assert.Equal(t, Closed, status)
}

func TestMailbox_RecvWakesOnSend(t *testing.T) {
	t.Parallel()
	m := New[int]()
	got := make(chan int, 1)
	go func() {
		v, _ := m.Recv()
		got <- v
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.Send(42))

	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("Recv did not wake up")
	}
}

func TestMailbox_RecvContext(t *testing.T) {
	t.Parallel()
	m := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.RecvContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	m.Close()
	_, err = m.RecvContext(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMailbox_ConcurrentProducers(t *testing.T) {
	t.Parallel()
	m := New[int]()
	const producers, perProducer = 8, 100

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				_ = m.Send(p*perProducer + i)
			}
		}()
	}
	go func() {
		wg.Wait()
		m.Close()
	}()

	seen := make(map[int]bool)
	for {
		v, ok := m.Recv()
		if !ok {
			break
		}
		seen[v] = true
	}
	assert.Len(t, seen, producers*perProducer)
}
