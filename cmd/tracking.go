package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/faceswap/internal/backend"
	"github.com/kozaktomas/faceswap/internal/constants"
	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/kozaktomas/faceswap/internal/poll"
	"github.com/kozaktomas/faceswap/internal/push"
	"github.com/kozaktomas/faceswap/internal/tracker"
	"github.com/kozaktomas/faceswap/internal/web"
	"github.com/spf13/cobra"
)

// ErrJobFailed is returned when the tracked job ends in the failed state.
var ErrJobFailed = errors.New("job failed")

type trackOptions struct {
	download   string
	listen     string
	noPush     bool
	noProgress bool
}

func addTrackFlags(c *cobra.Command) {
	c.Flags().String("download", "", "Download the result into this directory when the job completes")
	c.Flags().String("listen", "", "Serve the job status on this address, e.g. 127.0.0.1:8090")
	c.Flags().Bool("no-push", false, "Do not open the websocket channel, rely on polling only")
	c.Flags().Bool("no-progress", false, "Print status lines instead of a progress bar")
}

func getTrackOptions(cmd *cobra.Command) trackOptions {
	return trackOptions{
		download:   mustGetString(cmd, "download"),
		listen:     mustGetString(cmd, "listen"),
		noPush:     mustGetBool(cmd, "no-push"),
		noProgress: mustGetBool(cmd, "no-progress"),
	}
}

// newController wires the poll and push channels of client into a controller.
func newController(client *backend.Client, noPush bool) (*tracker.Controller, error) {
	poller := poll.New(client, poll.Options{
		Interval: cfg.Poll.Interval,
		Timeout:  cfg.Poll.Timeout,
		Logger:   log,
	})

	var pusher tracker.PushChannel
	if cfg.Push.Enabled && !noPush {
		wsURL, err := cfg.Backend.PushURL()
		if err != nil {
			return nil, err
		}
		pusher = tracker.DialerChannel(push.NewDialer(wsURL, push.Options{
			HandshakeTimeout:     constants.PushHandshakeTimeout,
			ReconnectAttempts:    cfg.Push.ReconnectAttempts,
			ReconnectMaxInterval: cfg.Push.ReconnectMaxInterval,
			Logger:               log,
		}))
	}

	return tracker.New(client, tracker.PollerChannel(poller), pusher, tracker.Options{Logger: log}), nil
}

// trackJob starts a job with start and follows it until it is terminal or the
// process is interrupted. The controller is disposed on return.
func trackJob(cmd *cobra.Command, client *backend.Client, opts trackOptions,
	start func(ctx context.Context, ctrl *tracker.Controller) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl, err := newController(client, opts.noPush)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if opts.listen != "" {
		srv := web.NewServer(ctrl, client.ResolveURL, opts.listen, log)
		go func() {
			if err := srv.Start(); err != nil {
				log.WithError(err).Error("status relay stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("status relay shutdown failed")
			}
		}()
	}

	out := cmd.OutOrStdout()
	updates := ctrl.Subscribe()
	r := newRenderer(out, opts.noProgress)
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for u := range updates {
			r.Render(u)
		}
	}()

	finish := func() {
		ctrl.Close()
		<-rendered
		r.Finish()
	}

	if err := start(ctx, ctrl); err != nil {
		finish()
		return err
	}

	id := ctrl.Identity()
	st, err := ctrl.WaitTerminal(ctx)
	finish()
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintf(out, "Stopped tracking. Resume with: faceswap watch %s --job-id %s\n", id.TaskID, id.JobID)
			return nil
		}
		return err
	}

	return reportResult(ctx, out, client, st, opts)
}

// reportResult prints the outcome of a terminal job and downloads its result
// when asked to.
func reportResult(ctx context.Context, out io.Writer, client *backend.Client, st jobstatus.Status, opts trackOptions) error {
	if st.State() == jobstatus.StateFailed {
		reason := detail(st)
		if reason == "" {
			reason = "no reason reported"
		}
		return fmt.Errorf("%w: %s", ErrJobFailed, reason)
	}

	fmt.Fprintf(out, "%s %s\n", colorize("Completed", jobstatus.ColorGreen), st.JobID)
	if !st.HasResult() {
		return nil
	}
	fmt.Fprintf(out, "Result: %s\n", client.ResolveURL(st.OutputURL))

	if opts.download == "" {
		return nil
	}
	path, size, err := client.Download(ctx, st.OutputURL, opts.download)
	if err != nil {
		return fmt.Errorf("failed to download result: %w", err)
	}
	fmt.Fprintf(out, "Saved %s (%d bytes)\n", path, size)
	return nil
}
