package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/faceswap/internal/tracker"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process <video-id> <image-id>",
	Short: "Submit a face swap job for uploaded files and follow it",
	Long: `Submit a processing job for a previously uploaded video and face image,
then follow its status until it completes or fails.

Example:
  faceswap process 3f2a...e1 9b0c...42
  faceswap process 3f2a...e1 9b0c...42 --download ./out`,
	Args: cobra.ExactArgs(2),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	addTrackFlags(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	videoID, imageID := args[0], args[1]

	return trackJob(cmd, client, getTrackOptions(cmd), func(ctx context.Context, ctrl *tracker.Controller) error {
		id, err := ctrl.StartProcessing(ctx, videoID, imageID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Submitted job %s (task %s)\n", id.JobID, id.TaskID)
		return nil
	})
}
