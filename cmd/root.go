package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/faceswap/internal/backend"
	"github.com/kozaktomas/faceswap/internal/config"
	"github.com/kozaktomas/faceswap/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log = logger.GetDefault()
)

var rootCmd = &cobra.Command{
	Use:   "faceswap",
	Short: "A CLI client for the face swap backend",
	Long: `Faceswap uploads a video and a face image to the face swap backend, submits
the processing job and follows it to completion. Progress is reconciled from
the backend's status endpoint and its live websocket feed.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, ErrJobFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().String("config", "", "Config file (default searches faceswap.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL (env API_URL)")
	rootCmd.PersistentFlags().String("ws-url", "", "Backend websocket base URL (env WS_URL)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// setup loads the configuration and the logger before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	loaded, err := config.Load(mustGetString(cmd, "config"), cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded

	log = logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      os.Stderr,
		ServiceName: "faceswap",
		File:        cfg.Log.File,
		MaxSize:     cfg.Log.MaxSize,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAge:      cfg.Log.MaxAge,
		Compress:    cfg.Log.Compress,
	})
	logger.SetDefault(log)
	cmd.SetContext(log.WithContext(cmd.Context()))
	return nil
}

func newClient() (*backend.Client, error) {
	client, err := backend.New(backend.Options{
		BaseURL:   cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout,
		UserAgent: "faceswap/" + Version,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return client, nil
}
