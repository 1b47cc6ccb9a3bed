package tracker

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/kozaktomas/faceswap/internal/push"
)

// fakeSubmitter returns a fixed submission or error.
type fakeSubmitter struct {
	mu    sync.Mutex
	sub   jobstatus.Submission
	err   error
	calls [][2]string
}

func (f *fakeSubmitter) Submit(ctx context.Context, videoID, imageID string) (jobstatus.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]string{videoID, imageID})
	return f.sub, f.err
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeStopper counts Stop calls.
type fakeStopper struct {
	mu    sync.Mutex
	stops int
}

func (s *fakeStopper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *fakeStopper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

type pollStart struct {
	taskID  string
	sink    func(jobstatus.Status)
	stopper *fakeStopper
}

// fakePoll records every started poll loop. Records are injected through the
// captured sink.
type fakePoll struct {
	mu     sync.Mutex
	starts []*pollStart
}

func (f *fakePoll) Start(ctx context.Context, taskID string, sink func(jobstatus.Status)) Stopper {
	f.mu.Lock()
	defer f.mu.Unlock()
	ps := &pollStart{taskID: taskID, sink: sink, stopper: &fakeStopper{}}
	f.starts = append(f.starts, ps)
	return ps.stopper
}

func (f *fakePoll) started() []*pollStart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*pollStart(nil), f.starts...)
}

func (f *fakePoll) last() *pollStart {
	s := f.started()
	return s[len(s)-1]
}

// fakeCloser counts Close calls.
type fakeCloser struct {
	mu     sync.Mutex
	closes int
}

func (c *fakeCloser) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *fakeCloser) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

type pushOpen struct {
	id      jobstatus.Identity
	handler push.Handler
	closer  *fakeCloser
}

// fakePush records every opened subscription; failNext makes the next Open fail.
type fakePush struct {
	mu       sync.Mutex
	opens    []*pushOpen
	failNext bool
}

var errDial = errors.New("dial refused")

func (f *fakePush) Open(ctx context.Context, id jobstatus.Identity, h push.Handler) (io.Closer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, errDial
	}
	po := &pushOpen{id: id, handler: h, closer: &fakeCloser{}}
	f.opens = append(f.opens, po)
	return po.closer, nil
}

func (f *fakePush) opened() []*pushOpen {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*pushOpen(nil), f.opens...)
}

func (f *fakePush) last() *pushOpen {
	o := f.opened()
	return o[len(o)-1]
}
