package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kozaktomas/faceswap/internal/backend"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a source video or a face image",
}

var uploadVideoCmd = &cobra.Command{
	Use:   "video <path>",
	Short: "Upload the video to swap the face in",
	Long: `Upload a video to the backend and print its file id.
Supported formats: mp4, avi, mov, webm

Example:
  faceswap upload video clip.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd, args[0], (*backend.Client).UploadVideo)
	},
}

var uploadImageCmd = &cobra.Command{
	Use:   "image <path>",
	Short: "Upload the face image",
	Long: `Upload a face image to the backend and print its file id.
Supported formats: jpg, jpeg, png

Example:
  faceswap upload image face.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd, args[0], (*backend.Client).UploadImage)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.AddCommand(uploadVideoCmd, uploadImageCmd)
}

type uploadFunc func(c *backend.Client, ctx context.Context, path string) (*backend.UploadResult, error)

func runUpload(cmd *cobra.Command, path string, upload uploadFunc) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	res, err := upload(client, cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", filepath.Base(path), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n", res.Filename)
	fmt.Fprintln(cmd.OutOrStdout(), res.FileID)
	return nil
}
