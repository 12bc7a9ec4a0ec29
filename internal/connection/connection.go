package connection

import "errors"

// ErrNotConnected is returned by Send when no socket is up.
var ErrNotConnected = errors.New("trading floor socket not connected")

// Manager is the common surface both transport variants expose to the UI:
// a manual reconnect action and teardown. Status itself flows through the
// store, not through this interface.
type Manager interface {
	Reconnect()
	Close() error
}
