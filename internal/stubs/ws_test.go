package stubs

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atfloor/floorcli/internal/connection"
	"github.com/atfloor/floorcli/internal/logger"
	"github.com/atfloor/floorcli/internal/models"
	"github.com/atfloor/floorcli/internal/state"
)

func TestWebSocketEndToEnd(t *testing.T) {
	market := NewMarketSource(logger.Discard())
	server := NewServer(market, nil, logger.Discard())
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	wsURL := strings.Replace(srv.URL, "http://", "ws://", 1) + "/ws/trading-floor"
	store := state.New()
	m := connection.NewWSManager(wsURL, store, 3, 100*time.Millisecond, logger.Discard())
	defer m.Close()

	m.Connect()
	require.Eventually(t, func() bool {
		return store.Connection() == state.Connected
	}, 5*time.Second, 10*time.Millisecond)

	select {
	case msg := <-m.Messages():
		assert.Equal(t, models.MsgConnectionConfirmed, msg.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a connection_confirmed frame")
	}

	// Echo round-trip through the envelope.
	require.NoError(t, m.Send(models.NewWSMessage(models.MsgEcho, map[string]any{"ping": 1}, time.Now())))
	select {
	case msg := <-m.Messages():
		assert.Equal(t, models.MsgEcho, msg.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("expected an echo frame")
	}
}
