package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/s3sentry/internal/analyzer"
	"github.com/ppiankov/s3sentry/internal/audit"
	"github.com/ppiankov/s3sentry/internal/baseline"
	"github.com/ppiankov/s3sentry/internal/report"
	"github.com/ppiankov/s3sentry/internal/s3"
	"github.com/ppiankov/s3sentry/internal/scanner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var scanFlags struct {
	bucket          string
	allBuckets      bool
	folder          string
	awsProfile      string
	awsRegion       string
	concurrency     int
	outputFormat    string
	outputFile      string
	noProgress      bool
	timeout         time.Duration
	publicOnly      bool
	fileTypes       []string
	noMask          bool
	excludeGitleaks bool
	baselinePath    string
	dayThreshold    int
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan buckets for exposure, sensitive data, or old objects",
}

var scanExposeCmd = &cobra.Command{
	Use:   "expose",
	Short: "Classify objects as public, private, or unknown",
	Long: `Fetches the ACL of every object and the policy status of its bucket,
then classifies each object's exposure. Objects whose access metadata
cannot be read are reported as UNKNOWN, never assumed private.`,
	RunE: runScanExpose,
}

var scanSensitiveCmd = &cobra.Command{
	Use:   "sensitive",
	Short: "Detect sensitive data in object content",
	Long: `Downloads readable object content and runs it through builtin regex
rules, custom patterns from the config file, and the gitleaks binary.
Matched values are masked in the report unless --no-mask is given.`,
	RunE: runScanSensitive,
}

var scanOldCmd = &cobra.Command{
	Use:   "old",
	Short: "Find objects older than a day threshold",
	RunE:  runScanOld,
}

func init() {
	for _, cmd := range []*cobra.Command{scanExposeCmd, scanSensitiveCmd, scanOldCmd} {
		cmd.Flags().StringVarP(&scanFlags.bucket, "bucket", "b", "", "Bucket to scan")
		cmd.Flags().StringVar(&scanFlags.folder, "folder", "", "Restrict the scan to keys under this prefix")
		cmd.Flags().StringVar(&scanFlags.awsProfile, "aws-profile", "", "AWS profile to use")
		cmd.Flags().StringVar(&scanFlags.awsRegion, "aws-region", "", "AWS region (defaults to profile default)")
		cmd.Flags().IntVar(&scanFlags.concurrency, "concurrency", 10, "Max concurrent S3 API calls")
		cmd.Flags().StringVarP(&scanFlags.outputFormat, "output-format", "f", "text", "Output format: text, json, html, sarif, or tree")
		cmd.Flags().StringVarP(&scanFlags.outputFile, "output-file", "o", "", "Output file (default: stdout)")
		cmd.Flags().BoolVar(&scanFlags.noProgress, "no-progress", false, "Disable progress indicators")
		cmd.Flags().DurationVar(&scanFlags.timeout, "timeout", 0, "Total operation timeout (e.g. 5m, 30s). 0 means no timeout")
	}

	scanExposeCmd.Flags().BoolVar(&scanFlags.allBuckets, "all", false, "Scan every bucket in the account")

	scanSensitiveCmd.Flags().BoolVar(&scanFlags.publicOnly, "public", false, "Only scan publicly exposed objects")
	scanSensitiveCmd.Flags().StringSliceVar(&scanFlags.fileTypes, "file-type", nil, "Extensions to scan (e.g. .txt,.log), or 'all'")
	scanSensitiveCmd.Flags().BoolVar(&scanFlags.noMask, "no-mask", false, "Show raw matched values instead of masked ones")
	scanSensitiveCmd.Flags().BoolVar(&scanFlags.excludeGitleaks, "exclude-gitleaks", false, "Skip the gitleaks detector layer")
	scanSensitiveCmd.Flags().StringVar(&scanFlags.baselinePath, "baseline", "", "Path to previous JSON report for diff comparison")

	scanOldCmd.Flags().IntVar(&scanFlags.dayThreshold, "day", 365, "Age threshold in days")

	scanCmd.AddCommand(scanExposeCmd)
	scanCmd.AddCommand(scanSensitiveCmd)
	scanCmd.AddCommand(scanOldCmd)
}

func runScanExpose(cmd *cobra.Command, args []string) error {
	applyConfigToScanFlags(cmd)
	if scanFlags.bucket == "" && !scanFlags.allBuckets {
		return fmt.Errorf("either --bucket or --all is required")
	}

	ctx, cancel := scanContext()
	defer cancel()

	client, err := s3.NewClient(ctx, scanFlags.awsProfile, scanFlags.awsRegion)
	if err != nil {
		return enhanceError("S3 client initialization", err, scanFlags.concurrency)
	}

	engine := audit.NewEngine(audit.NewStore(client), nil)

	printStatus("Classifying object exposure...")
	result, err := engine.ScanExposure(ctx, scanOptions())
	if result != nil {
		if werr := writeReport("expose", client.GetRegion(), result); werr != nil {
			return werr
		}
	}
	if err != nil {
		return enhanceError("exposure scan", err, scanFlags.concurrency)
	}
	return nil
}

func runScanSensitive(cmd *cobra.Command, args []string) error {
	applyConfigToScanFlags(cmd)
	if scanFlags.bucket == "" {
		return fmt.Errorf("--bucket is required")
	}

	ctx, cancel := scanContext()
	defer cancel()

	client, err := s3.NewClient(ctx, scanFlags.awsProfile, scanFlags.awsRegion)
	if err != nil {
		return enhanceError("S3 client initialization", err, scanFlags.concurrency)
	}

	custom, err := cfg.CompilePatterns()
	if err != nil {
		return err
	}

	var external scanner.SecretScanner
	if !scanFlags.excludeGitleaks {
		external = scanner.NewGitleaksScanner("", 0)
	}

	engine := audit.NewEngine(audit.NewStore(client), scanner.NewPipeline(custom, external))

	printStatus("Scanning object content in bucket %s...", scanFlags.bucket)
	result, scanErr := engine.ScanSensitive(ctx, scanOptions())
	if result == nil {
		return enhanceError("sensitive data scan", scanErr, scanFlags.concurrency)
	}

	data := reportData("sensitive", client.GetRegion(), result)
	if err := writeReportData(data); err != nil {
		return err
	}
	if scanErr != nil {
		return enhanceError("sensitive data scan", scanErr, scanFlags.concurrency)
	}

	if scanFlags.baselinePath != "" {
		baselineFindings, err := baseline.Load(scanFlags.baselinePath)
		if err != nil {
			return enhanceError("baseline load", err, scanFlags.concurrency)
		}
		diff := baseline.Diff(baseline.Flatten(data), baselineFindings)
		slog.Info("Baseline comparison",
			slog.Int("new", len(diff.New)),
			slog.Int("resolved", len(diff.Resolved)),
			slog.Int("unchanged", len(diff.Unchanged)),
		)
	}

	return nil
}

func runScanOld(cmd *cobra.Command, args []string) error {
	applyConfigToScanFlags(cmd)
	if scanFlags.bucket == "" {
		return fmt.Errorf("--bucket is required")
	}
	if scanFlags.dayThreshold <= 0 {
		return fmt.Errorf("--day must be positive")
	}

	ctx, cancel := scanContext()
	defer cancel()

	client, err := s3.NewClient(ctx, scanFlags.awsProfile, scanFlags.awsRegion)
	if err != nil {
		return enhanceError("S3 client initialization", err, scanFlags.concurrency)
	}

	engine := audit.NewEngine(audit.NewStore(client), nil)

	printStatus("Finding objects older than %d days in bucket %s...", scanFlags.dayThreshold, scanFlags.bucket)
	result, err := engine.ScanOld(ctx, scanOptions())
	if result != nil {
		if werr := writeReport("old", client.GetRegion(), result); werr != nil {
			return werr
		}
	}
	if err != nil {
		return enhanceError("age scan", err, scanFlags.concurrency)
	}
	return nil
}

// scanContext cancels on SIGINT/SIGTERM and, when --timeout is set, on the
// deadline. Scans interrupted this way still render their partial report.
func scanContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if scanFlags.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, scanFlags.timeout)
		return ctx, func() {
			cancel()
			stop()
		}
	}
	return ctx, stop
}

func scanOptions() audit.Options {
	opts := audit.Options{
		AllBuckets:   scanFlags.allBuckets,
		Folder:       scanFlags.folder,
		PublicOnly:   scanFlags.publicOnly,
		FileTypes:    scanFlags.fileTypes,
		NoMask:       scanFlags.noMask,
		DayThreshold: scanFlags.dayThreshold,
		Concurrency:  scanFlags.concurrency,
	}
	if scanFlags.bucket != "" {
		opts.Buckets = []string{scanFlags.bucket}
	}

	if term.IsTerminal(int(os.Stderr.Fd())) && !scanFlags.noProgress {
		opts.Progress = func(bucket, key string) {
			slog.Debug("Scanning object", slog.String("bucket", bucket), slog.String("key", key))
		}
	}
	return opts
}

func reportData(scan, region string, result *analyzer.Report) report.Data {
	return report.Data{
		Tool:      "s3sentry",
		Version:   GetVersion(),
		Timestamp: time.Now(),
		Config: report.Config{
			Scan:         scan,
			Buckets:      bucketList(),
			AllBuckets:   scanFlags.allBuckets,
			Folder:       scanFlags.folder,
			AWSProfile:   scanFlags.awsProfile,
			AWSRegion:    region,
			PublicOnly:   scanFlags.publicOnly,
			DayThreshold: scanFlags.dayThreshold,
		},
		Report: result,
	}
}

func bucketList() []string {
	if scanFlags.bucket == "" {
		return nil
	}
	return []string{scanFlags.bucket}
}

func writeReport(scan, region string, result *analyzer.Report) error {
	return writeReportData(reportData(scan, region, result))
}

func writeReportData(data report.Data) error {
	writer, closeFn, err := outputWriter(scanFlags.outputFile)
	if err != nil {
		return err
	}
	defer closeFn()

	reporter, err := selectReporter(scanFlags.outputFormat, writer)
	if err != nil {
		return err
	}
	if err := reporter.Generate(data); err != nil {
		return enhanceError("report generation", err, scanFlags.concurrency)
	}

	s := data.Report.Summary
	slog.Info("Scan complete",
		slog.Int("buckets", s.BucketsScanned),
		slog.Int("objects", s.ObjectsScanned),
		slog.Int("skipped", s.ObjectsSkipped),
		slog.Int("findings", s.TotalFindings),
	)
	return nil
}

func applyConfigToScanFlags(cmd *cobra.Command) {
	if !cmd.Flags().Lookup("aws-profile").Changed && cfg.Profile != "" {
		scanFlags.awsProfile = cfg.Profile
	}
	if !cmd.Flags().Lookup("aws-region").Changed && cfg.Region != "" {
		scanFlags.awsRegion = cfg.Region
	}
	if !cmd.Flags().Lookup("output-format").Changed && cfg.Format != "" {
		scanFlags.outputFormat = cfg.Format
	}
	if !cmd.Flags().Lookup("concurrency").Changed && cfg.Concurrency > 0 {
		scanFlags.concurrency = cfg.Concurrency
	}
	if !cmd.Flags().Lookup("timeout").Changed {
		if d := cfg.TimeoutDuration(); d > 0 {
			scanFlags.timeout = d
		}
	}
	if day := cmd.Flags().Lookup("day"); day != nil && !day.Changed && cfg.DayThreshold > 0 {
		scanFlags.dayThreshold = cfg.DayThreshold
	}
}
