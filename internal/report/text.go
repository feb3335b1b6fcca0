package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/ppiankov/s3sentry/internal/analyzer"
	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
	"github.com/ppiankov/s3sentry/internal/scanner"
)

// TextReporter generates human-readable text reports
type TextReporter struct {
	writer io.Writer
}

// NewTextReporter creates a new text reporter
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{writer: w}
}

// formatBytes formats bytes into human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	sizes := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), sizes[exp])
}

func exposureLabel(status s3pkg.ExposureStatus) string {
	switch status {
	case s3pkg.ExposurePublic:
		return color.RedString("[PUBLIC]")
	case s3pkg.ExposurePrivate:
		return color.GreenString("[PRIVATE]")
	case s3pkg.ExposureUnknown:
		return color.YellowString("[UNKNOWN]")
	default:
		return string(status)
	}
}

func severityLabel(s scanner.Severity) string {
	switch s {
	case scanner.SeverityCritical:
		return color.RedString("[CRITICAL]")
	case scanner.SeverityHigh:
		return color.MagentaString("[HIGH]")
	case scanner.SeverityMedium:
		return color.YellowString("[MEDIUM]")
	case scanner.SeverityLow:
		return color.CyanString("[LOW]")
	default:
		return fmt.Sprintf("[%s]", strings.ToUpper(string(s)))
	}
}

// Generate generates a text report
func (r *TextReporter) Generate(data Data) error {
	fmt.Fprintf(r.writer, "S3Sentry Report\n")
	fmt.Fprintf(r.writer, "===============\n\n")
	fmt.Fprintf(r.writer, "Scan Time: %s\n", data.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(r.writer, "Scan Type: %s\n", data.Config.Scan)
	if data.Config.AWSProfile != "" {
		fmt.Fprintf(r.writer, "AWS Profile: %s\n", data.Config.AWSProfile)
	}
	if data.Config.AWSRegion != "" {
		fmt.Fprintf(r.writer, "AWS Region: %s\n", data.Config.AWSRegion)
	}
	if data.Config.Folder != "" {
		fmt.Fprintf(r.writer, "Folder: %s\n", data.Config.Folder)
	}
	fmt.Fprintf(r.writer, "\n")

	r.printSummary(data.Report.Summary)

	for _, bucket := range data.Report.Buckets {
		r.printBucket(bucket, data.Config)
	}

	r.printDiagnostics(data.Report.Diagnostics)

	return nil
}

func (r *TextReporter) printSummary(summary analyzer.Summary) {
	fmt.Fprintf(r.writer, "Summary\n")
	fmt.Fprintf(r.writer, "-------\n")
	fmt.Fprintf(r.writer, "Buckets Scanned: %d\n", summary.BucketsScanned)
	fmt.Fprintf(r.writer, "Objects Scanned: %d\n", summary.ObjectsScanned)
	if summary.ObjectsSkipped > 0 {
		fmt.Fprintf(r.writer, "Objects Skipped: %d\n", summary.ObjectsSkipped)
	}

	if summary.PublicObjects > 0 {
		fmt.Fprintf(r.writer, "%s: %d\n", color.RedString("Public Objects"), summary.PublicObjects)
	}
	if summary.PrivateObjects > 0 {
		fmt.Fprintf(r.writer, "Private Objects: %d\n", summary.PrivateObjects)
	}
	if summary.UnknownObjects > 0 {
		fmt.Fprintf(r.writer, "%s: %d\n", color.YellowString("Unknown Exposure"), summary.UnknownObjects)
	}
	if summary.OldObjects > 0 {
		fmt.Fprintf(r.writer, "%s: %d (%s)\n",
			color.YellowString("Old Objects"),
			summary.OldObjects,
			formatBytes(summary.OldObjectsSize))
	}
	if summary.TotalFindings > 0 {
		fmt.Fprintf(r.writer, "%s: %d\n", color.RedString("Sensitive Findings"), summary.TotalFindings)
		for _, sev := range []scanner.Severity{
			scanner.SeverityCritical, scanner.SeverityHigh,
			scanner.SeverityMedium, scanner.SeverityLow,
		} {
			if n := summary.FindingsBySeverity[sev]; n > 0 {
				fmt.Fprintf(r.writer, "  %s: %d\n", sev, n)
			}
		}
	}

	fmt.Fprintf(r.writer, "\n")
}

func (r *TextReporter) printBucket(bucket analyzer.BucketSection, cfg Config) {
	fmt.Fprintf(r.writer, "Bucket: %s\n", bucket.Bucket)
	fmt.Fprintf(r.writer, "%s\n", strings.Repeat("-", 50))

	if len(bucket.Objects) == 0 {
		fmt.Fprintf(r.writer, "  (no results)\n\n")
		return
	}

	for _, obj := range bucket.Objects {
		switch {
		case obj.AgeFlag != nil:
			fmt.Fprintf(r.writer, "  %s %s (%s, %d days old)\n",
				color.YellowString("[OLD]"),
				obj.Object.Key,
				formatBytes(obj.Object.Size),
				obj.AgeFlag.AgeDays)
		case obj.Exposure != "":
			fmt.Fprintf(r.writer, "  %s %s (%s)\n",
				exposureLabel(obj.Exposure),
				obj.Object.Key,
				formatBytes(obj.Object.Size))
		default:
			fmt.Fprintf(r.writer, "  %s (%s)\n",
				obj.Object.Key,
				formatBytes(obj.Object.Size))
		}

		for _, f := range obj.Findings {
			value := f.Masked
			if f.Match != "" {
				value = f.Match
			}
			fmt.Fprintf(r.writer, "    %s %s: %s (line %d, %s)\n",
				severityLabel(f.Severity),
				f.Category,
				value,
				f.Line,
				f.Source)
		}
	}
	fmt.Fprintf(r.writer, "\n")
}

func (r *TextReporter) printDiagnostics(diags []analyzer.Diagnostic) {
	if len(diags) == 0 {
		return
	}

	fmt.Fprintf(r.writer, "%s\n", color.YellowString("Diagnostics"))
	fmt.Fprintf(r.writer, "%s\n", strings.Repeat("-", 50))
	for _, d := range diags {
		target := d.Bucket
		if d.Object != "" {
			target = d.Bucket + "/" + d.Object
		}
		if target != "" {
			fmt.Fprintf(r.writer, "  [%s] %s: %s\n", d.Stage, target, d.Detail)
		} else {
			fmt.Fprintf(r.writer, "  [%s] %s\n", d.Stage, d.Detail)
		}
	}
	fmt.Fprintf(r.writer, "\n")
}
