package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <output-url>",
	Short: "Download the result of a completed job",
	Long: `Download a result file. The output URL may be absolute or relative to the
backend, as reported by the status endpoint.

Example:
  faceswap download /api/download/5d6e...a0.mp4 --dest ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringP("dest", "o", "", "Destination file or directory (default current directory)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	path, size, err := client.Download(cmd.Context(), args[0], mustGetString(cmd, "dest"))
	if err != nil {
		return fmt.Errorf("failed to download result: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", path, size)
	return nil
}
