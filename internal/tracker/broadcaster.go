package tracker

import (
	"sync"

	"github.com/kozaktomas/faceswap/internal/constants"
	"github.com/kozaktomas/faceswap/internal/jobstatus"
)

// Source names the origin of an update.
type Source string

// Source constants
const (
	SourceSubmit Source = "submit"
	SourcePoll   Source = "poll"
	SourcePush   Source = "push"
)

// Update is published whenever the displayed status changes.
type Update struct {
	State    State              `json:"state"`
	Identity jobstatus.Identity `json:"identity"`
	Status   jobstatus.Status   `json:"status"`
	Source   Source             `json:"source"`
}

// Broadcaster provides listener management and update broadcasting.
type Broadcaster struct {
	listeners []chan Update
	closed    bool
	mu        sync.RWMutex
}

// AddListener adds an update listener. Listeners added after CloseAll get an
// already closed channel.
func (b *Broadcaster) AddListener() chan Update {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Update, constants.EventChannelBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an update listener and closes its channel.
func (b *Broadcaster) RemoveListener(ch chan Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Send delivers an update to all listeners without blocking.
func (b *Broadcaster) Send(u Update) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- u:
		default:
			// Listener buffer full, skip.
		}
	}
}

// CloseAll closes every listener channel.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, listener := range b.listeners {
		close(listener)
	}
	b.listeners = nil
	b.closed = true
}
