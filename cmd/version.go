package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata variables, set by -ldflags at compile time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		printVersion(cmd.OutOrStdout(), info, mustGetBool(cmd, "short"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "Print the version number only")
}

// buildMetadata returns the ldflags metadata, filling what was not injected
// from the module build info of `go install` builds.
func buildMetadata(info *debug.BuildInfo) (version, commit, date string) {
	version, commit, date = Version, CommitSHA, BuildDate
	if info == nil {
		return version, commit, date
	}
	if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "unknown" {
				commit = s.Value
			}
		case "vcs.time":
			if date == "unknown" {
				date = s.Value
			}
		}
	}
	return version, commit, date
}

func printVersion(w io.Writer, info *debug.BuildInfo, short bool) {
	version, commit, date := buildMetadata(info)
	if short {
		fmt.Fprintln(w, version)
		return
	}
	fmt.Fprintf(w, "faceswap %s\n", version)
	fmt.Fprintf(w, "  Commit: %s\n", commit)
	fmt.Fprintf(w, "  Built:  %s\n", date)
	fmt.Fprintf(w, "  Go:     %s\n", runtime.Version())
}
