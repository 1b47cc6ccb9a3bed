// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Poll channel constants
const (
	// PollInterval is the delay between two status fetches of the poll channel
	PollInterval = 2000 * time.Millisecond

	// PollTimeout bounds a single status fetch; a timed-out fetch counts as a miss
	PollTimeout = 10 * time.Second
)

// Push channel constants
const (
	// PushPath is the backend path of the status websocket
	PushPath = "/ws"

	// PushHandshakeTimeout bounds the websocket opening handshake
	PushHandshakeTimeout = 10 * time.Second

	// PushReconnectMaxInterval caps the backoff between two reconnect attempts
	PushReconnectMaxInterval = 10 * time.Second

	// PushCloseGrace is how long a close frame may take to be written
	PushCloseGrace = time.Second
)

// Backend request constants
const (
	// BackendTimeout is the default timeout of a backend request. Uploads of
	// large videos dominate it.
	BackendTimeout = 5 * time.Minute

	// DefaultBackendURL is used when no backend address is configured
	DefaultBackendURL = "http://localhost:8000"
)

// Placeholder constants for a freshly submitted job
const (
	// PlaceholderStatus is the raw status of a job the backend has not reported yet
	PlaceholderStatus = "queued"

	// PlaceholderMessage is shown until the first real status arrives
	PlaceholderMessage = "Waiting for processing..."
)
