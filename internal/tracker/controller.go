// Package tracker reconciles the poll and push status channels of a single
// face-swap job into one displayed status.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/kozaktomas/faceswap/internal/constants"
	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/kozaktomas/faceswap/internal/logger"
)

// State is the lifecycle state of the controller.
type State int

// State constants
const (
	StateIdle State = iota
	StateActive
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateIdle, StateActive, StateTerminal} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown controller state %q", text)
}

// Options configures a Controller.
type Options struct {
	Logger *logger.Logger
}

// run holds the channels of one tracked identity.
type run struct {
	cancel   context.CancelFunc
	poll     Stopper
	push     io.Closer
	terminal chan struct{} // closed on the first terminal status
	ended    chan struct{} // closed when the run is torn down
}

// release tears the run down. Callers make sure it runs once per run; a
// poll loop already stopped at the terminal status is no longer referenced.
func (r *run) release() {
	close(r.ended)
	if r.poll != nil {
		r.poll.Stop()
	}
	if r.push != nil {
		_ = r.push.Close()
	}
	r.cancel()
}

// Controller tracks one job at a time. Records from the poll and push
// channels are merged in arrival order; a new submission replaces the
// tracked job and tears down the previous channels.
type Controller struct {
	submitter Submitter
	poller    PollChannel
	pusher    PushChannel
	log       *logger.Logger

	broadcaster Broadcaster

	mu       sync.Mutex
	state    State
	identity jobstatus.Identity
	current  *jobstatus.Status
	active   *run
	closed   bool
}

// New creates an idle controller. submitter may be nil when jobs are only
// tracked via Track; pusher may be nil to rely on polling alone.
func New(submitter Submitter, poller PollChannel, pusher PushChannel, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	return &Controller{
		submitter: submitter,
		poller:    poller,
		pusher:    pusher,
		log:       log.Component("tracker"),
	}
}

// StartProcessing submits a processing request for the uploaded files and
// starts tracking the resulting job. A failed submission is returned as a
// *SubmitError and leaves the controller untouched. The channels of the job
// live until ctx is canceled, the job is replaced or the controller is closed.
func (c *Controller) StartProcessing(ctx context.Context, videoID, imageID string) (jobstatus.Identity, error) {
	if videoID == "" || imageID == "" {
		return jobstatus.Identity{}, ErrMissingUpload
	}
	if c.submitter == nil {
		return jobstatus.Identity{}, ErrNoSubmitter
	}

	sub, err := c.submitter.Submit(ctx, videoID, imageID)
	if err != nil {
		c.log.WithError(err).Error("job submission failed")
		return jobstatus.Identity{}, &SubmitError{Err: err}
	}
	if err := c.Activate(ctx, sub); err != nil {
		return jobstatus.Identity{}, err
	}
	return sub.Identity(), nil
}

// Activate starts tracking an accepted submission.
func (c *Controller) Activate(ctx context.Context, sub jobstatus.Submission) error {
	return c.activate(ctx, sub.Identity(), sub.Placeholder())
}

// Track starts tracking a job that was submitted elsewhere.
func (c *Controller) Track(ctx context.Context, id jobstatus.Identity) error {
	id = jobstatus.NewIdentity(id.JobID, id.TaskID)
	if id.IsZero() {
		return errors.New("cannot track a job without id")
	}
	placeholder := jobstatus.Status{
		JobID:   id.JobID,
		Status:  constants.PlaceholderStatus,
		Message: constants.PlaceholderMessage,
	}
	return c.activate(ctx, id, placeholder)
}

func (c *Controller) activate(ctx context.Context, id jobstatus.Identity, placeholder jobstatus.Status) error {
	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return ErrClosed
	}
	previous := c.active

	r := &run{
		cancel:   cancel,
		terminal: make(chan struct{}),
		ended:    make(chan struct{}),
	}
	c.active = r
	c.identity = id
	ph := id.Merge(nil, placeholder)
	c.current = &ph
	c.state = StateActive
	if ph.IsTerminal() {
		c.state = StateTerminal
		close(r.terminal)
	}
	c.publishLocked(SourceSubmit)
	c.mu.Unlock()

	if previous != nil {
		previous.release()
	}

	log := c.log.WithFields(logger.Fields{logger.FieldJobID: id.JobID, logger.FieldTaskID: id.TaskID})
	log.Info("tracking job")

	var pollSub Stopper
	if !ph.IsTerminal() {
		pollSub = c.poller.Start(runCtx, id.TaskID, func(st jobstatus.Status) {
			c.apply(r, SourcePoll, st)
		})
	}

	var pushSub io.Closer
	if c.pusher != nil {
		s, err := c.pusher.Open(runCtx, id, &pushHandler{c: c, r: r, log: log})
		if err != nil {
			log.WithError(err).Warn("push channel unavailable, relying on polling")
		} else {
			pushSub = s
		}
	}

	c.mu.Lock()
	if c.active != r {
		// Replaced or closed while the channels were being opened.
		c.mu.Unlock()
		if pollSub != nil {
			pollSub.Stop()
		}
		if pushSub != nil {
			_ = pushSub.Close()
		}
		return nil
	}
	r.push = pushSub
	if c.state == StateTerminal && pollSub != nil {
		// The job finished before its poll loop was stored.
		pollSub.Stop()
		pollSub = nil
	}
	r.poll = pollSub
	c.mu.Unlock()
	return nil
}

// apply merges a record into the displayed status.
func (c *Controller) apply(r *run, source Source, st jobstatus.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.active != r {
		return
	}
	if !c.identity.Matches(st.JobID) {
		c.log.WithField(logger.FieldJobID, st.JobID).Debug("ignoring record of another job")
		return
	}

	next := c.identity.Merge(c.current, st)
	if c.current != nil && next == *c.current {
		return
	}
	c.current = &next

	if next.IsTerminal() && c.state == StateActive {
		c.state = StateTerminal
		close(r.terminal)
		if r.poll != nil {
			r.poll.Stop()
			r.poll = nil
		}
		c.log.WithFields(logger.Fields{
			logger.FieldJobID:  c.identity.JobID,
			logger.FieldStatus: next.Status,
			logger.FieldSource: source,
		}).Info("job finished")
	}
	c.publishLocked(source)
}

func (c *Controller) publishLocked(source Source) {
	if c.current == nil {
		return
	}
	c.broadcaster.Send(Update{
		State:    c.state,
		Identity: c.identity,
		Status:   *c.current,
		Source:   source,
	})
}

// Current returns the displayed status, if any.
func (c *Controller) Current() (jobstatus.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return jobstatus.Status{}, false
	}
	return *c.current, true
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the identity of the tracked job.
func (c *Controller) Identity() jobstatus.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// StatusText returns the label of the displayed status, empty when idle.
func (c *Controller) StatusText() string {
	st, ok := c.Current()
	if !ok {
		return ""
	}
	return st.Text()
}

// StatusColor returns the color of the displayed status, gray when idle.
func (c *Controller) StatusColor() jobstatus.Color {
	st, ok := c.Current()
	if !ok {
		return jobstatus.ColorGray
	}
	return st.Color()
}

// Subscribe returns a channel receiving every change of the displayed status.
func (c *Controller) Subscribe() chan Update {
	return c.broadcaster.AddListener()
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (c *Controller) Unsubscribe(ch chan Update) {
	c.broadcaster.RemoveListener(ch)
}

// WaitTerminal blocks until the tracked job reaches a terminal status and
// returns it.
func (c *Controller) WaitTerminal(ctx context.Context) (jobstatus.Status, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return jobstatus.Status{}, ErrClosed
	}
	r := c.active
	c.mu.Unlock()
	if r == nil {
		return jobstatus.Status{}, ErrIdle
	}

	select {
	case <-r.terminal:
		st, _ := c.Current()
		return st, nil
	case <-r.ended:
		if c.isClosed() {
			return jobstatus.Status{}, ErrClosed
		}
		return jobstatus.Status{}, ErrSuperseded
	case <-ctx.Done():
		return jobstatus.Status{}, ctx.Err()
	}
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close tears down the channels of the tracked job whatever its state and
// closes all subscriber channels. It is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	r := c.active
	c.active = nil
	c.mu.Unlock()

	if r != nil {
		r.release()
	}
	c.broadcaster.CloseAll()
}

// pushHandler routes the events of one run's push subscription.
type pushHandler struct {
	c   *Controller
	r   *run
	log *logger.Logger
}

func (h *pushHandler) OnStatus(st jobstatus.Status) {
	h.c.apply(h.r, SourcePush, st)
}

func (h *pushHandler) OnError(err error) {
	h.log.WithError(err).Warn("push channel error")
}

func (h *pushHandler) OnClose() {
	h.log.Debug("push channel closed")
}
