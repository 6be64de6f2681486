package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/chromaleap/internal/infra/ai/prompt"
)

// Version information - set via ldflags at build time
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "chromaleap %s\n", Version)
		fmt.Fprintf(w, "  engine:  %s\n", prompt.EngineName)
		fmt.Fprintf(w, "  commit:  %s\n", Commit)
		fmt.Fprintf(w, "  built:   %s\n", BuildDate)
		fmt.Fprintf(w, "  go:      %s\n", runtime.Version())
		fmt.Fprintf(w, "  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
