package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   [][]byte
	fail   bool
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.msgs = append(c.msgs, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestHubBroadcastDropsBrokenClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(zap.NewNop())
	go h.Run(ctx)

	good, bad := &fakeConn{}, &fakeConn{fail: true}
	h.Register(good)
	h.Register(bad)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Broadcast([]byte(`{"type":"order_created"}`)))

	require.Eventually(t, func() bool { return good.received() == 1 && h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, bad.closed)
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := &fakeConn{}
	h.Register(c)
	cancel()
	<-done

	assert.True(t, c.closed)
	assert.Equal(t, 0, h.ClientCount())
}

func (c *fakeConn) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.msgs))
	for i, m := range c.msgs {
		out[i] = string(m)
	}
	return out
}

func TestHubDeliversInBroadcastOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(zap.NewNop())
	go h.Run(ctx)

	c := &fakeConn{}
	require.True(t, h.Register(c))

	want := make([]string, 200)
	for i := range want {
		want[i] = fmt.Sprintf("e%03d", i)
		require.NoError(t, h.Broadcast([]byte(want[i])))
	}

	require.Eventually(t, func() bool { return c.received() == len(want) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, want, c.snapshot())
}

func TestHubCallsReturnAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		c := &fakeConn{}
		assert.False(t, h.Register(c))
		h.Unregister(c)
		assert.ErrorIs(t, h.Broadcast([]byte("late")), ErrStopped)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("hub call blocked after shutdown")
	}
}

func TestHubBroadcastReportsBacklog(t *testing.T) {
	h := NewHub(zap.NewNop())
	for i := 0; i < broadcastBuffer; i++ {
		require.NoError(t, h.Broadcast([]byte("queued")))
	}

	assert.ErrorIs(t, h.Broadcast([]byte("overflow")), ErrBacklog)
}
