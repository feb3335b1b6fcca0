package commands

import (
	"log/slog"

	"github.com/ppiankov/s3sentry/internal/config"
	"github.com/ppiankov/s3sentry/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	version = "dev"
	commit  string
	date    string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "s3sentry",
	Short: "S3Sentry - AWS S3 security and hygiene auditor",
	Long: `S3Sentry audits AWS S3 buckets for public exposure, sensitive data in
object content, and objects past their age threshold. It classifies every
object as public, private, or unknown, runs regex and gitleaks detection
over readable content, and reports in text, JSON, HTML, or SARIF.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)
		loaded, err := config.Load(".")
		if err != nil {
			slog.Warn("Failed to load config file", "error", err)
		} else {
			cfg = loaded
		}
	},
}

// Execute runs the root command with injected build info. An empty version
// keeps the "dev" default so un-tagged builds still print something useful.
func Execute(v, c, d string) error {
	if v != "" {
		version = v
	}
	commit = c
	date = d
	return rootCmd.Execute()
}

// GetVersion returns the current version.
func GetVersion() string {
	return version
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}
