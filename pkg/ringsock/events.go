package ringsock

import (
	"time"

	"github.com/bft-labs/ringsock/pkg/lifecycle"
)

// State is the lifecycle state of a Ringsock instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return lifecycle.State(s).String()
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ConnectionEvent is emitted when a client connects.
type ConnectionEvent struct {
	ID     string
	Remote string
}

// ConnectionClosedEvent is emitted when a client connection ends.
type ConnectionClosedEvent struct {
	ID            string
	BytesReceived int64
	BytesSent     int64
	Records       int
	Seeks         int
	Err           error
	ClosedAt      time.Time
}

// EventHandler receives Ringsock events. Methods are called synchronously
// from connection goroutines and must return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnConnectionOpened(event ConnectionEvent)
	OnConnectionClosed(event ConnectionClosedEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// override only the events you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)           {}
func (BaseEventHandler) OnConnectionOpened(ConnectionEvent)       {}
func (BaseEventHandler) OnConnectionClosed(ConnectionClosedEvent) {}
