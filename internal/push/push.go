// Package push subscribes to the backend's status websocket and delivers the
// records that belong to one job.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/kozaktomas/faceswap/internal/constants"
	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/kozaktomas/faceswap/internal/logger"
)

// Handler receives the events of a subscription. Calls come from the
// subscription's reader goroutine, one at a time.
type Handler interface {
	OnStatus(st jobstatus.Status)
	OnError(err error)
	OnClose()
}

// Options configures a Dialer. Zero values select the defaults; a zero
// ReconnectAttempts disables reconnecting.
type Options struct {
	HandshakeTimeout         time.Duration
	ReconnectAttempts        int
	ReconnectInitialInterval time.Duration
	ReconnectMaxInterval     time.Duration
	Logger                   *logger.Logger
}

// Dialer opens push subscriptions against one websocket endpoint.
type Dialer struct {
	url  string
	ws   *websocket.Dialer
	opts Options
	log  *logger.Logger
}

// NewDialer creates a Dialer for the given ws:// or wss:// address.
func NewDialer(url string, opts Options) *Dialer {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = constants.PushHandshakeTimeout
	}
	if opts.ReconnectInitialInterval <= 0 {
		opts.ReconnectInitialInterval = 500 * time.Millisecond
	}
	if opts.ReconnectMaxInterval <= 0 {
		opts.ReconnectMaxInterval = constants.PushReconnectMaxInterval
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	return &Dialer{
		url: url,
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		opts: opts,
		log:  log.Component("push").WithField(logger.FieldURL, url),
	}
}

// URL returns the websocket address.
func (d *Dialer) URL() string {
	return d.url
}

func (d *Dialer) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := d.ws.DialContext(ctx, d.url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("could not connect to %s: %w (status %d)", d.url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("could not connect to %s: %w", d.url, err)
	}
	return conn, nil
}

// Open connects to the websocket and starts delivering records of the job
// identified by id to h. It fails only if the first connection cannot be
// established; later connection loss is reported through h.OnError.
// Canceling ctx closes the subscription.
func (d *Dialer) Open(ctx context.Context, id jobstatus.Identity, h Handler) (*Subscription, error) {
	conn, err := d.dial(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		dialer: d,
		id:     id,
		h:      h,
		log:    d.log.WithField(logger.FieldJobID, id.JobID).WithField(logger.FieldTaskID, id.TaskID),
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	context.AfterFunc(ctx, func() { _ = s.Close() })
	go s.run(ctx)
	return s, nil
}

// Subscription is an open push channel for one job.
type Subscription struct {
	dialer *Dialer
	id     jobstatus.Identity
	h      Handler
	log    *logger.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)
	defer s.h.OnClose()

	for {
		err := s.read(s.current())
		if s.isClosed() {
			return
		}

		s.log.WithError(err).Warn("push connection lost")
		s.h.OnError(err)

		if s.dialer.opts.ReconnectAttempts == 0 {
			s.release()
			return
		}
		conn, err := s.reconnect(ctx)
		if err != nil {
			if !s.isClosed() {
				s.log.WithError(err).Warn("giving up on push channel")
				s.h.OnError(err)
			}
			s.release()
			return
		}
		if !s.swap(conn) {
			_ = conn.Close()
			return
		}
		s.log.Info("push channel reconnected")
	}
}

// read consumes messages until the connection fails.
func (s *Subscription) read(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var st jobstatus.Status
		if err := json.Unmarshal(data, &st); err != nil {
			s.log.WithField("payload", truncate(data, 80)).Debug("skipping non-status message")
			continue
		}
		if !s.id.Matches(st.JobID) {
			continue
		}
		if s.isClosed() {
			return errClosed
		}
		s.h.OnStatus(st)
	}
}

// errClosed ends a read loop whose subscription was closed.
var errClosed = errors.New("push subscription closed")

func (s *Subscription) reconnect(ctx context.Context) (*websocket.Conn, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.dialer.opts.ReconnectInitialInterval
	b.MaxInterval = s.dialer.opts.ReconnectMaxInterval
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.dialer.opts.ReconnectAttempts-1)), ctx)

	var conn *websocket.Conn
	attempt := 0
	op := func() error {
		attempt++
		c, err := s.dialer.dial(ctx)
		if err != nil {
			s.log.WithField(logger.FieldAttempt, attempt).WithError(err).Debug("reconnect failed")
			return err
		}
		conn = c
		return nil
	}

	// Give the backend a moment before the first attempt.
	timer := time.NewTimer(b.InitialInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *Subscription) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// swap installs a reconnected connection unless the subscription was closed.
func (s *Subscription) swap(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = conn
	return true
}

// release marks the subscription closed after the channel gave up by itself.
func (s *Subscription) release() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		conn := s.conn
		s.mu.Unlock()

		s.cancel()
		_ = conn.Close()
	})
}

// Close stops delivery and releases the connection. It is idempotent and does
// not wait for the reader goroutine; use Done for that.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		conn := s.conn
		s.mu.Unlock()

		s.cancel()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(constants.PushCloseGrace))
		_ = conn.Close()
	})
	return nil
}

// Done is closed when the reader goroutine has exited and OnClose was called.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
