package tracker

import (
	"context"
	"io"

	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/kozaktomas/faceswap/internal/poll"
	"github.com/kozaktomas/faceswap/internal/push"
)

// Submitter hands a processing request to the backend.
type Submitter interface {
	Submit(ctx context.Context, videoID, imageID string) (jobstatus.Submission, error)
}

// Stopper stops a running poll loop. Stop must be idempotent and must not block.
type Stopper interface {
	Stop()
}

// PollChannel starts polling the status of a task.
type PollChannel interface {
	Start(ctx context.Context, taskID string, sink func(jobstatus.Status)) Stopper
}

// PushChannel opens a push subscription for a job. The returned Closer must be
// idempotent and must not block on the delivering goroutine.
type PushChannel interface {
	Open(ctx context.Context, id jobstatus.Identity, h push.Handler) (io.Closer, error)
}

type pollAdapter struct {
	p *poll.Poller
}

// PollerChannel adapts a poll.Poller to PollChannel.
func PollerChannel(p *poll.Poller) PollChannel {
	return pollAdapter{p: p}
}

func (a pollAdapter) Start(ctx context.Context, taskID string, sink func(jobstatus.Status)) Stopper {
	return a.p.Start(ctx, taskID, sink)
}

type pushAdapter struct {
	d *push.Dialer
}

// DialerChannel adapts a push.Dialer to PushChannel.
func DialerChannel(d *push.Dialer) PushChannel {
	return pushAdapter{d: d}
}

func (a pushAdapter) Open(ctx context.Context, id jobstatus.Identity, h push.Handler) (io.Closer, error) {
	sub, err := a.d.Open(ctx, id, h)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
