package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Fetch the current status of a job once",
	Long: `Fetch the status of a job from the status endpoint once and print it.

Example:
  faceswap status 5d6e...a0
  faceswap status 5d6e...a0 --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringP("format", "f", "text", "Output format: text, json or yaml")
}

// statusView is the printable form of a job status.
type statusView struct {
	JobID       string `json:"job_id" yaml:"job_id"`
	Status      string `json:"status" yaml:"status"`
	State       string `json:"state" yaml:"state"`
	Progress    int    `json:"progress" yaml:"progress"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
	DownloadURL string `json:"download_url,omitempty" yaml:"download_url,omitempty"`
}

func newStatusView(st jobstatus.Status, resolveURL func(string) string) statusView {
	v := statusView{
		JobID:    st.JobID,
		Status:   st.Status,
		State:    string(st.State()),
		Progress: st.Progress,
		Message:  st.Message,
		Error:    st.Error,
	}
	if st.HasResult() {
		v.DownloadURL = resolveURL(st.OutputURL)
	}
	return v
}

// writeStatus renders v in the requested format.
func writeStatus(w io.Writer, v statusView, st jobstatus.Status, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		fmt.Fprintln(w, formatLine(st))
		if v.DownloadURL != "" {
			fmt.Fprintf(w, "Result: %s\n", v.DownloadURL)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q: expected text, json or yaml", format)
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	format := mustGetString(cmd, "format")

	client, err := newClient()
	if err != nil {
		return err
	}

	st, err := client.FetchStatus(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch job status: %w", err)
	}
	if st.JobID == "" {
		st.JobID = args[0]
	}
	return writeStatus(cmd.OutOrStdout(), newStatusView(*st, client.ResolveURL), *st, format)
}
