package baseline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/s3sentry/internal/report"
	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
)

// Finding is a flattened, identity-comparable issue from a scan.
type Finding struct {
	Type     string `json:"type"`
	Bucket   string `json:"bucket"`
	Object   string `json:"object,omitempty"`
	Category string `json:"category,omitempty"`
}

func (f Finding) key() string {
	return fmt.Sprintf("%s|%s|%s|%s", f.Type, f.Bucket, f.Object, f.Category)
}

// DiffResult holds the outcome of comparing current findings against a baseline.
type DiffResult struct {
	New       []Finding
	Resolved  []Finding
	Unchanged []Finding
}

// Flatten converts a scan report into a flat finding list. Sensitive data
// findings carry their category; exposure and age issues identify by object
// alone.
func Flatten(data report.Data) []Finding {
	if data.Report == nil {
		return nil
	}

	var findings []Finding
	for _, bucket := range data.Report.Buckets {
		for _, obj := range bucket.Objects {
			switch obj.Exposure {
			case s3pkg.ExposurePublic:
				findings = append(findings, Finding{
					Type: "public_object", Bucket: bucket.Bucket, Object: obj.Object.Key,
				})
			case s3pkg.ExposureUnknown:
				findings = append(findings, Finding{
					Type: "unknown_exposure", Bucket: bucket.Bucket, Object: obj.Object.Key,
				})
			}
			if obj.AgeFlag != nil {
				findings = append(findings, Finding{
					Type: "old_object", Bucket: bucket.Bucket, Object: obj.Object.Key,
				})
			}
			for _, f := range obj.Findings {
				findings = append(findings, Finding{
					Type:     "sensitive_data",
					Bucket:   bucket.Bucket,
					Object:   obj.Object.Key,
					Category: f.Category,
				})
			}
		}
	}
	return findings
}

// Load reads a previous scan JSON report and extracts findings.
func Load(path string) ([]Finding, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	var data report.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse baseline: %w", err)
	}
	return Flatten(data), nil
}

// Diff compares current findings against a baseline.
func Diff(current, baseline []Finding) DiffResult {
	baseMap := make(map[string]struct{}, len(baseline))
	for _, f := range baseline {
		baseMap[f.key()] = struct{}{}
	}
	curMap := make(map[string]struct{}, len(current))
	for _, f := range current {
		curMap[f.key()] = struct{}{}
	}

	var result DiffResult
	for _, f := range current {
		if _, exists := baseMap[f.key()]; exists {
			result.Unchanged = append(result.Unchanged, f)
		} else {
			result.New = append(result.New, f)
		}
	}
	for _, f := range baseline {
		if _, exists := curMap[f.key()]; !exists {
			result.Resolved = append(result.Resolved, f)
		}
	}
	return result
}
