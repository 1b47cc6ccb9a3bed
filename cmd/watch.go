package cmd

import (
	"context"

	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/kozaktomas/faceswap/internal/tracker"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <task-id>",
	Short: "Follow a job that was submitted earlier",
	Long: `Follow the status of an already submitted job. The task id addresses the
status endpoint; pass --job-id when the websocket feed reports the job under a
different id.

Example:
  faceswap watch 5d6e...a0
  faceswap watch 5d6e...a0 --job-id 77c1...09 --listen 127.0.0.1:8090`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("job-id", "", "Job id used by the websocket feed (defaults to the task id)")
	addTrackFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	id := jobstatus.NewIdentity(mustGetString(cmd, "job-id"), args[0])

	return trackJob(cmd, client, getTrackOptions(cmd), func(ctx context.Context, ctrl *tracker.Controller) error {
		return ctrl.Track(ctx, id)
	})
}
