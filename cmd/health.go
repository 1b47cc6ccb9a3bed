package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/kozaktomas/faceswap/internal/backend"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend and its workers are up",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	h, err := client.Health(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "Backend %s  %s\n", client.BaseURL(), color.RedString("unreachable"))
		return err
	}
	fmt.Fprintf(out, "Backend %s  %s\n", client.BaseURL(), color.GreenString(h.Status))
	if h.Celery != "" {
		fmt.Fprintf(out, "Queue   %s\n", h.Celery)
	}

	workers, err := client.Workers(cmd.Context())
	switch {
	case backend.IsNotFound(err):
		fmt.Fprintf(out, "Workers %s\n", color.HiBlackString("not reported"))
		return nil
	case err != nil:
		fmt.Fprintf(out, "Workers %s\n", color.YellowString("unknown"))
		log.WithError(err).Warn("could not read worker status")
		return nil
	}

	status := color.GreenString(workers.Status)
	if workers.Status != "connected" {
		status = color.YellowString(workers.Status)
	}
	fmt.Fprintf(out, "Workers %s  %d online\n", status, len(workers.Workers))
	if workers.Message != "" {
		fmt.Fprintf(out, "        %s\n", workers.Message)
	}
	return nil
}
