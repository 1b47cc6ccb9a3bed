package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/faceswap/internal/backend"
	"github.com/kozaktomas/faceswap/internal/constants"
	"github.com/kozaktomas/faceswap/internal/tracker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run <video> <face-image>",
	Short: "Upload both files, submit the job and follow it",
	Long: `Upload a video and a face image, submit the face swap job and follow it
until it completes or fails. Both uploads run concurrently.

Example:
  faceswap run clip.mp4 face.jpg --download ./out`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addTrackFlags(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	videoPath, imagePath := args[0], args[1]

	// Reject unsupported files before uploading anything.
	if err := backend.CheckExtension(videoPath, constants.VideoExtensions); err != nil {
		return err
	}
	if err := backend.CheckExtension(imagePath, constants.ImageExtensions); err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	var video, image *backend.UploadResult
	g, gctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		res, err := client.UploadVideo(gctx, videoPath)
		if err != nil {
			return fmt.Errorf("failed to upload video: %w", err)
		}
		video = res
		return nil
	})
	g.Go(func() error {
		res, err := client.UploadImage(gctx, imagePath)
		if err != nil {
			return fmt.Errorf("failed to upload image: %w", err)
		}
		image = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Uploaded %s and %s\n", video.Filename, image.Filename)

	return trackJob(cmd, client, getTrackOptions(cmd), func(ctx context.Context, ctrl *tracker.Controller) error {
		id, err := ctrl.StartProcessing(ctx, video.FileID, image.FileID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Submitted job %s (task %s)\n", id.JobID, id.TaskID)
		return nil
	})
}
