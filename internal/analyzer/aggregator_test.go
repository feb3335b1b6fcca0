package analyzer

import (
	"reflect"
	"sync"
	"testing"

	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
	"github.com/ppiankov/s3sentry/internal/scanner"
)

func TestAggregator_BucketListingOrderPreserved(t *testing.T) {
	agg := NewAggregator()
	agg.StartBucket("zebra")
	agg.StartBucket("alpha")
	agg.AddObject(ObjectResult{Object: s3pkg.Object{Bucket: "alpha", Key: "a.txt"}})

	report := agg.Finalize()
	if len(report.Buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(report.Buckets))
	}
	if report.Buckets[0].Bucket != "zebra" || report.Buckets[1].Bucket != "alpha" {
		t.Fatalf("listing order not preserved: %q, %q",
			report.Buckets[0].Bucket, report.Buckets[1].Bucket)
	}
}

func TestAggregator_ObjectsSortedByKey(t *testing.T) {
	agg := NewAggregator()
	agg.StartBucket("demo")
	for _, key := range []string{"c.txt", "a.txt", "b.txt"} {
		agg.AddObject(ObjectResult{Object: s3pkg.Object{Bucket: "demo", Key: key}})
	}

	report := agg.Finalize()
	keys := make([]string, 0, 3)
	for _, obj := range report.Buckets[0].Objects {
		keys = append(keys, obj.Object.Key)
	}
	want := []string{"a.txt", "b.txt", "c.txt"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("objects not sorted: %v", keys)
	}
}

func TestAggregator_FindingsSortedByOffsetThenCategory(t *testing.T) {
	agg := NewAggregator()
	agg.AddObject(ObjectResult{
		Object: s3pkg.Object{Bucket: "demo", Key: "a.txt"},
		Findings: []scanner.Finding{
			{Category: "B", StartOffset: 40},
			{Category: "B", StartOffset: 10},
			{Category: "A", StartOffset: 10},
		},
	})

	report := agg.Finalize()
	findings := report.Buckets[0].Objects[0].Findings
	if findings[0].Category != "A" || findings[0].StartOffset != 10 {
		t.Fatalf("unexpected first finding: %+v", findings[0])
	}
	if findings[1].Category != "B" || findings[1].StartOffset != 10 {
		t.Fatalf("unexpected second finding: %+v", findings[1])
	}
	if findings[2].StartOffset != 40 {
		t.Fatalf("unexpected third finding: %+v", findings[2])
	}
}

func TestAggregator_SummaryCounters(t *testing.T) {
	agg := NewAggregator()
	agg.AddObject(ObjectResult{
		Object:   s3pkg.Object{Bucket: "demo", Key: "public.txt"},
		Exposure: s3pkg.ExposurePublic,
		Findings: []scanner.Finding{
			{Category: "AWS Access Key", Severity: scanner.SeverityCritical},
			{Category: "Email Address", Severity: scanner.SeverityMedium},
		},
	})
	agg.AddObject(ObjectResult{
		Object:   s3pkg.Object{Bucket: "demo", Key: "private.txt", Size: 4096},
		Exposure: s3pkg.ExposurePrivate,
		AgeFlag:  &AgeFlag{AgeDays: 400, ThresholdDays: 365},
	})
	agg.AddObject(ObjectResult{
		Object:   s3pkg.Object{Bucket: "demo", Key: "locked.txt"},
		Exposure: s3pkg.ExposureUnknown,
	})
	agg.AddSkipped()
	agg.AddSkipped()

	s := agg.Finalize().Summary
	if s.BucketsScanned != 1 || s.ObjectsScanned != 3 || s.ObjectsSkipped != 2 {
		t.Fatalf("unexpected scan counts: %+v", s)
	}
	if s.PublicObjects != 1 || s.PrivateObjects != 1 || s.UnknownObjects != 1 {
		t.Fatalf("unexpected exposure counts: %+v", s)
	}
	if s.OldObjects != 1 || s.OldObjectsSize != 4096 || s.TotalFindings != 2 {
		t.Fatalf("unexpected age or finding counts: %+v", s)
	}
	if s.FindingsBySeverity[scanner.SeverityCritical] != 1 ||
		s.FindingsBySeverity[scanner.SeverityMedium] != 1 {
		t.Fatalf("unexpected severity breakdown: %+v", s.FindingsBySeverity)
	}
}

func TestAggregator_DiagnosticsSorted(t *testing.T) {
	agg := NewAggregator()
	agg.AddDiagnostic(Diagnostic{Bucket: "b", Object: "y", Stage: "content"})
	agg.AddDiagnostic(Diagnostic{Bucket: "a", Object: "z", Stage: "acl"})
	agg.AddDiagnostic(Diagnostic{Bucket: "b", Object: "x", Stage: "content"})

	diags := agg.Finalize().Diagnostics
	if diags[0].Bucket != "a" || diags[1].Object != "x" || diags[2].Object != "y" {
		t.Fatalf("diagnostics not sorted: %+v", diags)
	}
}

func TestAggregator_ConcurrentAddsDeterministic(t *testing.T) {
	run := func() *Report {
		agg := NewAggregator()
		agg.StartBucket("demo")
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := string(rune('a'+i%26)) + ".txt"
				agg.AddObject(ObjectResult{
					Object:   s3pkg.Object{Bucket: "demo", Key: key},
					Exposure: s3pkg.ExposurePrivate,
				})
			}(i)
		}
		wg.Wait()
		return agg.Finalize()
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical concurrent workloads produced different reports")
	}
}
