package baseline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/s3sentry/internal/analyzer"
	"github.com/ppiankov/s3sentry/internal/report"
	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
	"github.com/ppiankov/s3sentry/internal/scanner"
)

func sampleReport() report.Data {
	return report.Data{
		Tool:    "s3sentry",
		Version: "0.1.0",
		Report: &analyzer.Report{
			Buckets: []analyzer.BucketSection{{
				Bucket: "demo",
				Objects: []analyzer.ObjectResult{
					{
						Object:   s3pkg.Object{Bucket: "demo", Key: "public.txt"},
						Exposure: s3pkg.ExposurePublic,
						Findings: []scanner.Finding{
							{Category: "AWS Access Key", Masked: "AKIA...CDEF"},
						},
					},
					{
						Object:   s3pkg.Object{Bucket: "demo", Key: "private.txt"},
						Exposure: s3pkg.ExposurePrivate,
					},
					{
						Object:  s3pkg.Object{Bucket: "demo", Key: "stale.log"},
						AgeFlag: &analyzer.AgeFlag{AgeDays: 400, ThresholdDays: 365},
					},
				},
			}},
		},
	}
}

func TestFlatten(t *testing.T) {
	findings := Flatten(sampleReport())
	// public.txt: public_object + sensitive_data, stale.log: old_object
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d: %+v", len(findings), findings)
	}

	types := map[string]bool{}
	for _, f := range findings {
		types[f.Type] = true
	}
	for _, want := range []string{"public_object", "sensitive_data", "old_object"} {
		if !types[want] {
			t.Errorf("expected %s finding", want)
		}
	}
}

func TestFlatten_NilReport(t *testing.T) {
	if findings := Flatten(report.Data{}); findings != nil {
		t.Fatalf("expected nil for empty data, got %+v", findings)
	}
}

func TestDiff_AllStatuses(t *testing.T) {
	baseline := []Finding{
		{Type: "public_object", Bucket: "demo", Object: "public.txt"},
		{Type: "sensitive_data", Bucket: "demo", Object: "public.txt", Category: "AWS Access Key"},
		{Type: "old_object", Bucket: "demo", Object: "cleaned.log"},
	}
	current := []Finding{
		{Type: "public_object", Bucket: "demo", Object: "public.txt"},                               // unchanged
		{Type: "sensitive_data", Bucket: "demo", Object: "public.txt", Category: "AWS Access Key"},  // unchanged
		{Type: "sensitive_data", Bucket: "demo", Object: "config.yml", Category: "Password Assignment"}, // new
	}

	result := Diff(current, baseline)

	if len(result.New) != 1 || result.New[0].Object != "config.yml" {
		t.Errorf("expected 1 new finding (config.yml), got %+v", result.New)
	}
	if len(result.Resolved) != 1 || result.Resolved[0].Object != "cleaned.log" {
		t.Errorf("expected 1 resolved finding (cleaned.log), got %+v", result.Resolved)
	}
	if len(result.Unchanged) != 2 {
		t.Errorf("expected 2 unchanged findings, got %d", len(result.Unchanged))
	}
}

func TestDiff_CategoryDistinguishesFindings(t *testing.T) {
	baseline := []Finding{
		{Type: "sensitive_data", Bucket: "demo", Object: "a.txt", Category: "Email Address"},
	}
	current := []Finding{
		{Type: "sensitive_data", Bucket: "demo", Object: "a.txt", Category: "AWS Access Key"},
	}

	result := Diff(current, baseline)
	if len(result.New) != 1 || len(result.Resolved) != 1 {
		t.Errorf("different categories must not match: %+v", result)
	}
}

func TestDiff_EmptyBaseline(t *testing.T) {
	current := []Finding{{Type: "public_object", Bucket: "a", Object: "x"}}
	result := Diff(current, nil)
	if len(result.New) != 1 {
		t.Errorf("expected 1 new, got %d", len(result.New))
	}
	if len(result.Resolved) != 0 {
		t.Errorf("expected 0 resolved, got %d", len(result.Resolved))
	}
}

func TestDiff_EmptyCurrent(t *testing.T) {
	baseline := []Finding{{Type: "public_object", Bucket: "a", Object: "x"}}
	result := Diff(nil, baseline)
	if len(result.Resolved) != 1 {
		t.Errorf("expected 1 resolved, got %d", len(result.Resolved))
	}
	if len(result.New) != 0 {
		t.Errorf("expected 0 new, got %d", len(result.New))
	}
}

func TestLoad(t *testing.T) {
	raw, _ := json.Marshal(sampleReport())
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	findings, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(findings))
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load("/nonexistent/path")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{invalid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
