// Package analyzer turns per-object scan results into an ordered report.
package analyzer

import (
	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
	"github.com/ppiankov/s3sentry/internal/scanner"
)

// AgeFlag marks an object whose last modification is older than the
// configured threshold.
type AgeFlag struct {
	AgeDays       int `json:"age_days"`
	ThresholdDays int `json:"threshold_days"`
}

// ObjectResult is everything the scan learned about one object.
type ObjectResult struct {
	Object   s3pkg.Object         `json:"object"`
	Exposure s3pkg.ExposureStatus `json:"exposure,omitempty"`
	Findings []scanner.Finding    `json:"findings,omitempty"`
	AgeFlag  *AgeFlag             `json:"age_flag,omitempty"`
}

// BucketSection groups results for one bucket.
type BucketSection struct {
	Bucket  string         `json:"bucket"`
	Objects []ObjectResult `json:"objects"`
}

// Diagnostic records a non-fatal degradation that happened during the scan,
// such as an unreadable object or an unavailable external tool.
type Diagnostic struct {
	Bucket string `json:"bucket,omitempty"`
	Object string `json:"object,omitempty"`
	Stage  string `json:"stage"`
	Detail string `json:"detail"`
}

// Summary holds the report-wide counters. It is recomputed from the result
// set at finalize time, never incremented ad hoc.
type Summary struct {
	BucketsScanned     int                      `json:"buckets_scanned"`
	ObjectsScanned     int                      `json:"objects_scanned"`
	ObjectsSkipped     int                      `json:"objects_skipped"`
	PublicObjects      int                      `json:"public_objects"`
	PrivateObjects     int                      `json:"private_objects"`
	UnknownObjects     int                      `json:"unknown_objects"`
	OldObjects         int                      `json:"old_objects"`
	OldObjectsSize     int64                    `json:"old_objects_size,omitempty"`
	TotalFindings      int                      `json:"total_findings"`
	FindingsBySeverity map[scanner.Severity]int `json:"findings_by_severity,omitempty"`
}

// Report is the final ordered scan result.
type Report struct {
	Summary     Summary         `json:"summary"`
	Buckets     []BucketSection `json:"buckets"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
}
