package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/chromaleap/internal/domain/analysis"
	"github.com/bryanwahyu/chromaleap/internal/infra/httpclient"
)

var (
	showExportFlag bool
	showJSONFlag   bool
)

var showCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Show a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showExportFlag, "export", false, "Write the analysis to chromaleap-analysis-<unix-ms>.json")
	showCmd.Flags().BoolVar(&showJSONFlag, "json", false, "Print the analysis as JSON instead of the results view")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rec, err := httpclient.New(cfg.Client.Endpoint).Get(cmd.Context(), analysis.RecordID(args[0]))
	if err != nil {
		return err
	}

	v := newView(nil, cmd.OutOrStdout(), cmd.ErrOrStderr())
	v.asJSON = showJSONFlag
	v.export = showExportFlag
	v.session.Show(rec)
	return v.present()
}
