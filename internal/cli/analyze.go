package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/chromaleap/internal/application/upload"
	"github.com/bryanwahyu/chromaleap/internal/infra/httpclient"
	"github.com/bryanwahyu/chromaleap/internal/infra/storage"
)

var (
	analyzeExportFlag    bool
	analyzeExportDirFlag string
	analyzeJSONFlag      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [image...]",
	Short: "Upload an image and analyze its editing pipeline",
	Long: `Upload an image to object storage and ask the ChromaLeap API to analyze it.

Several paths count as one drop: the first image among them is analyzed and
other files are ignored. Without arguments, paths are read one per line from
stdin until an empty line.

Supported formats: JPG, PNG, WEBP (max 20MB).

Examples:
  chromaleap analyze photo.jpg                 # Analyze one image
  chromaleap analyze notes.txt photo.jpg       # First image wins
  chromaleap analyze photo.jpg --export        # Also write chromaleap-analysis-<ms>.json
  chromaleap analyze photo.jpg --json          # Print the raw analysis JSON`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeExportFlag, "export", false, "Write the analysis to chromaleap-analysis-<unix-ms>.json")
	analyzeCmd.Flags().StringVar(&analyzeExportDirFlag, "export-dir", ".", "Directory for --export files")
	analyzeCmd.Flags().BoolVar(&analyzeJSONFlag, "json", false, "Print the analysis as JSON instead of the results view")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.StorageEnabled() {
		return errors.New("object storage is not configured: set minio.endpoint or MINIO_ENDPOINT")
	}

	ctx := cmd.Context()
	store, err := storage.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
		cfg.Minio.PublicURL,
	)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}

	v := newView(upload.New(store, httpclient.New(cfg.Client.Endpoint)), cmd.OutOrStdout(), cmd.ErrOrStderr())
	v.asJSON = analyzeJSONFlag
	v.export = analyzeExportFlag
	v.exportDir = analyzeExportDirFlag

	if len(args) == 0 {
		return v.loop(ctx, cmd.InOrStdin())
	}
	return v.drop(ctx, args)
}
