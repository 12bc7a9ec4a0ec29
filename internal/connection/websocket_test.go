package connection

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/atfloor/floorcli/internal/logger"
	"github.com/atfloor/floorcli/internal/models"
	"github.com/atfloor/floorcli/internal/state"
)

// fakeConn fails every read with a fixed error, simulating a socket that
// drops as soon as it is established.
type fakeConn struct {
	readErr error
	closed  atomic.Int32
}

func (f *fakeConn) ReadMessage(ctx context.Context) (models.WSMessage, error) {
	select {
	case <-ctx.Done():
		return models.WSMessage{}, ctx.Err()
	case <-time.After(time.Millisecond):
		return models.WSMessage{}, f.readErr
	}
}

func (f *fakeConn) WriteMessage(ctx context.Context, msg models.WSMessage) error { return nil }

func (f *fakeConn) Close() error {
	f.closed.Add(1)
	return nil
}

// servingConn delivers a fixed number of frames, then blocks until the
// context dies.
type servingConn struct {
	frames atomic.Int32
}

func (s *servingConn) ReadMessage(ctx context.Context) (models.WSMessage, error) {
	if s.frames.Add(-1) >= 0 {
		return models.WSMessage{Type: models.MsgSystemStatus}, nil
	}
	<-ctx.Done()
	return models.WSMessage{}, ctx.Err()
}

func (s *servingConn) WriteMessage(ctx context.Context, msg models.WSMessage) error { return nil }
func (s *servingConn) Close() error                                                 { return nil }

// blockingConn never returns from reads until the context dies.
type blockingConn struct{}

func (b *blockingConn) ReadMessage(ctx context.Context) (models.WSMessage, error) {
	<-ctx.Done()
	return models.WSMessage{}, ctx.Err()
}

func (b *blockingConn) WriteMessage(ctx context.Context, msg models.WSMessage) error { return nil }
func (b *blockingConn) Close() error                                                 { return nil }

func newTestManager(t *testing.T, maxAttempts int, dial dialFunc) (*WSManager, *state.Store) {
	t.Helper()
	store := state.New()
	m := newWSManager(store, maxAttempts, 5*time.Millisecond, logger.Discard())
	m.dial = dial
	t.Cleanup(func() { m.Close() })
	return m, store
}

func TestConnectIsIdempotent(t *testing.T) {
	var dials atomic.Int32
	release := make(chan struct{})

	m, _ := newTestManager(t, 3, func(ctx context.Context) (wsConn, error) {
		dials.Add(1)
		<-release
		return &blockingConn{}, nil
	})

	m.Connect()
	m.Connect()
	m.Connect()
	close(release)

	assert.Eventually(t, func() bool {
		return m.store.Connection() == state.Connected
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), dials.Load())
}

func TestReconnectBudgetExhaustion(t *testing.T) {
	const budget = 3
	var dials atomic.Int32

	m, store := newTestManager(t, budget, func(ctx context.Context) (wsConn, error) {
		dials.Add(1)
		return &fakeConn{readErr: websocket.CloseError{
			Code:   websocket.StatusAbnormalClosure,
			Reason: "backend restarted",
		}}, nil
	})

	m.Connect()

	// Initial connect plus exactly `budget` retries, then silence.
	require.Eventually(t, func() bool {
		return dials.Load() == budget+1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(budget+1), dials.Load())
	assert.Equal(t, state.Disconnected, store.Connection())
}

func TestCleanCloseDoesNotRetry(t *testing.T) {
	var dials atomic.Int32

	m, store := newTestManager(t, 5, func(ctx context.Context) (wsConn, error) {
		dials.Add(1)
		return &fakeConn{readErr: websocket.CloseError{
			Code: websocket.StatusNormalClosure,
		}}, nil
	})

	m.Connect()

	require.Eventually(t, func() bool {
		return store.Connection() == state.Disconnected
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), dials.Load())
}

func TestLiveSocketResetsBudget(t *testing.T) {
	var dials atomic.Int32

	m, _ := newTestManager(t, 2, func(ctx context.Context) (wsConn, error) {
		n := dials.Add(1)
		if n <= 2 {
			// Two abnormal drops, then a socket that actually serves.
			return &fakeConn{readErr: websocket.CloseError{
				Code: websocket.StatusAbnormalClosure,
			}}, nil
		}
		conn := &servingConn{}
		conn.frames.Store(1)
		return conn, nil
	})

	m.Connect()
	require.Eventually(t, func() bool {
		return m.store.Connection() == state.Connected
	}, time.Second, 5*time.Millisecond)

	// A dial alone does not touch the counter; the first delivered frame
	// proves the socket and resets it.
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.attempts == 0
	}, time.Second, 5*time.Millisecond)
}

func TestManualReconnectClosesExistingSocket(t *testing.T) {
	conn := &fakeConn{readErr: websocket.CloseError{Code: websocket.StatusNormalClosure}}
	first := true
	m, _ := newTestManager(t, 2, func(ctx context.Context) (wsConn, error) {
		if first {
			first = false
			return &blockingConn{}, nil
		}
		_ = conn
		return &blockingConn{}, nil
	})

	m.Connect()
	require.Eventually(t, func() bool {
		return m.store.Connection() == state.Connected
	}, time.Second, 5*time.Millisecond)

	m.Reconnect()
	assert.Equal(t, state.Connecting, m.store.Connection())

	// Debounced dial fires again after the reset.
	require.Eventually(t, func() bool {
		return m.store.Connection() == state.Connected
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSendWithoutSocket(t *testing.T) {
	m, _ := newTestManager(t, 1, func(ctx context.Context) (wsConn, error) {
		return &blockingConn{}, nil
	})

	err := m.Send(models.WSMessage{Type: models.MsgEcho})
	assert.ErrorIs(t, err, ErrNotConnected)
}
