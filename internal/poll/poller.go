// Package poll periodically fetches a job's status until it becomes terminal.
package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/faceswap/internal/constants"
	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/kozaktomas/faceswap/internal/logger"
)

// Fetcher reads the current status of a job.
type Fetcher interface {
	FetchStatus(ctx context.Context, taskID string) (*jobstatus.Status, error)
}

// Sink receives every successfully fetched status.
type Sink func(jobstatus.Status)

// Options configures a Poller. Zero values select the defaults.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	Logger   *logger.Logger
}

// Poller starts poll subscriptions against a Fetcher.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger
}

// New creates a Poller.
func New(fetcher Fetcher, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = constants.PollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.PollTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	return &Poller{
		fetcher:  fetcher,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		log:      log.Component("poll"),
	}
}

// Subscription is a running poll loop for one task.
type Subscription struct {
	taskID  string
	cancel  context.CancelFunc
	once    sync.Once
	done    chan struct{}
	fetches atomic.Int64
}

// Start fetches the status of taskID immediately and then once per interval,
// passing each result to sink. The loop ends on the first terminal status,
// when ctx is canceled or when the subscription is stopped. Fetch errors are
// logged and the loop carries on.
//
// Fetches never overlap: a tick that fires while a fetch is still running is
// coalesced into the next one.
func (p *Poller) Start(ctx context.Context, taskID string, sink Sink) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		taskID: taskID,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	log := p.log.WithField(logger.FieldTaskID, taskID)
	go func() {
		defer close(sub.done)
		defer sub.Stop()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			if p.poll(ctx, sub, sink, log) {
				log.Debug("poll loop finished")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return sub
}

// poll runs one fetch and reports whether the loop should end.
func (p *Poller) poll(ctx context.Context, sub *Subscription, sink Sink, log *logger.Logger) bool {
	if ctx.Err() != nil {
		return true
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	sub.fetches.Add(1)
	st, err := p.fetcher.FetchStatus(fetchCtx, sub.taskID)
	if ctx.Err() != nil {
		// Stopped while the fetch was in flight, the result is not wanted anymore.
		return true
	}
	if err != nil {
		log.WithError(err).Warn("status fetch failed")
		return false
	}
	if st == nil {
		return false
	}

	rec := *st
	if rec.JobID == "" {
		rec.JobID = sub.taskID
	}
	if rec.IsTerminal() {
		sub.Stop()
		sink(rec)
		return true
	}
	sink(rec)
	return false
}

// Stop ends the loop. It is safe to call more than once, concurrently and
// after the loop ended by itself. It does not wait for an in-flight fetch.
func (s *Subscription) Stop() {
	s.once.Do(s.cancel)
}

// Done is closed once the loop goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Fetches returns the number of issued fetches.
func (s *Subscription) Fetches() int {
	return int(s.fetches.Load())
}

// TaskID returns the polled task handle.
func (s *Subscription) TaskID() string {
	return s.taskID
}
