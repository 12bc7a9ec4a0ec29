package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/atfloor/floorcli/internal/models"
	"github.com/atfloor/floorcli/internal/state"
)

// reconnectDebounce guards manual Reconnect against duplicate rapid calls.
const reconnectDebounce = 500 * time.Millisecond

// wsConn is the slice of a websocket connection the manager uses.
// Abstracted so the state machine is testable without a listener.
type wsConn interface {
	ReadMessage(ctx context.Context) (models.WSMessage, error)
	WriteMessage(ctx context.Context, msg models.WSMessage) error
	Close() error
}

// dialFunc opens one socket. The default dials the configured URL with
// nhooyr.io/websocket.
type dialFunc func(ctx context.Context) (wsConn, error)

type nhooyrConn struct {
	c *websocket.Conn
}

func (n *nhooyrConn) ReadMessage(ctx context.Context) (models.WSMessage, error) {
	var msg models.WSMessage
	err := wsjson.Read(ctx, n.c, &msg)
	return msg, err
}

func (n *nhooyrConn) WriteMessage(ctx context.Context, msg models.WSMessage) error {
	return wsjson.Write(ctx, n.c, msg)
}

func (n *nhooyrConn) Close() error {
	return n.c.Close(websocket.StatusNormalClosure, "client going away")
}

// cleanClose reports whether a read error represents an intentional
// shutdown rather than an abnormal drop. Only abnormal drops consume the
// retry budget.
func cleanClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

// WSManager maintains one push socket to /ws/trading-floor with a bounded
// automatic reconnect. Connect is idempotent while a socket is connecting
// or connected; a successful connection resets the retry counter; the
// budget makes reconnect loops exhaustible. Error is recoverable through
// Reconnect.
type WSManager struct {
	dial        dialFunc
	store       *state.Store
	log         *slog.Logger
	maxAttempts int
	retryDelay  time.Duration

	mu       sync.Mutex
	conn     wsConn
	dialing  bool
	attempts int
	retry    *time.Timer
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	msgs   chan models.WSMessage
	wg     sync.WaitGroup
}

// NewWSManager builds the websocket variant against url.
func NewWSManager(url string, store *state.Store, maxAttempts int, retryDelay time.Duration, log *slog.Logger) *WSManager {
	m := newWSManager(store, maxAttempts, retryDelay, log)
	m.dial = func(ctx context.Context) (wsConn, error) {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		c, _, err := websocket.Dial(dialCtx, url, nil)
		if err != nil {
			return nil, err
		}
		return &nhooyrConn{c: c}, nil
	}
	return m
}

func newWSManager(store *state.Store, maxAttempts int, retryDelay time.Duration, log *slog.Logger) *WSManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &WSManager{
		store:       store,
		log:         log,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		ctx:         ctx,
		cancel:      cancel,
		msgs:        make(chan models.WSMessage, 64),
	}
}

// Messages exposes frames received from the floor.
func (m *WSManager) Messages() <-chan models.WSMessage {
	return m.msgs
}

// Connect opens the socket unless one is already connecting or connected.
func (m *WSManager) Connect() {
	m.mu.Lock()
	if m.closed || m.dialing || m.conn != nil {
		m.mu.Unlock()
		return
	}
	m.dialing = true
	m.mu.Unlock()

	m.store.SetConnection(state.Connecting)
	m.wg.Add(1)
	go m.connectAndServe()
}

func (m *WSManager) connectAndServe() {
	defer m.wg.Done()

	conn, err := m.dial(m.ctx)

	m.mu.Lock()
	m.dialing = false
	if m.closed {
		m.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		m.mu.Unlock()
		m.log.Warn("socket dial failed", "error", err)
		m.store.SetConnection(state.ConnError)
		m.scheduleRetry()
		return
	}
	// The counter is not reset here: a backend that accepts the dial and
	// immediately drops would otherwise never exhaust the budget. It resets
	// once the socket proves live in the read loop.
	m.conn = conn
	m.mu.Unlock()

	m.store.SetConnection(state.Connected)
	m.readLoop(conn)
}

func (m *WSManager) readLoop(conn wsConn) {
	proven := false
	for {
		msg, err := conn.ReadMessage(m.ctx)
		if err == nil && !proven {
			proven = true
			m.mu.Lock()
			m.attempts = 0
			m.mu.Unlock()
		}
		if err != nil {
			m.mu.Lock()
			current := m.conn == conn
			if current {
				m.conn = nil
			}
			closed := m.closed
			m.mu.Unlock()

			if closed || !current {
				return
			}
			m.store.SetConnection(state.Disconnected)
			if cleanClose(err) || m.ctx.Err() != nil {
				return
			}
			m.log.Debug("socket dropped", "error", err)
			m.scheduleRetry()
			return
		}

		select {
		case m.msgs <- msg:
		default:
			// Slow consumer; drop rather than stall the read loop.
		}
	}
}

// scheduleRetry arms one reconnect timer while budget remains.
func (m *WSManager) scheduleRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.attempts >= m.maxAttempts {
		return
	}
	m.attempts++
	if m.retry != nil {
		m.retry.Stop()
	}
	m.retry = time.AfterFunc(m.retryDelay, m.Connect)
}

// Reconnect forces a fresh socket: closes any existing one, resets the
// retry budget, and connects again after a short debounce delay.
func (m *WSManager) Reconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.retry != nil {
		m.retry.Stop()
	}
	conn := m.conn
	m.conn = nil
	m.attempts = 0
	m.retry = time.AfterFunc(reconnectDebounce, m.Connect)
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	m.store.SetConnection(state.Connecting)
}

// Send writes one frame on the current socket.
func (m *WSManager) Send(msg models.WSMessage) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.WriteMessage(m.ctx, msg)
}

// Close tears the manager down: cancels any pending reconnect timer and
// closes the socket. The manager cannot be reused afterwards.
func (m *WSManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.retry != nil {
		m.retry.Stop()
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	m.cancel()
	if conn != nil {
		conn.Close()
	}
	m.wg.Wait()
	m.store.SetConnection(state.Disconnected)
	return nil
}
