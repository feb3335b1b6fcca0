package analyzer

import (
	"sort"
	"sync"

	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
	"github.com/ppiankov/s3sentry/internal/scanner"
)

// Aggregator accumulates per-object results from concurrent workers and
// produces a deterministic report. All methods are safe for concurrent use.
type Aggregator struct {
	mu          sync.Mutex
	order       []string
	buckets     map[string]*BucketSection
	skipped     int
	diagnostics []Diagnostic
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		buckets: make(map[string]*BucketSection),
	}
}

// StartBucket registers a bucket in listing order so the report preserves it
// even when the bucket turns out to be empty.
func (a *Aggregator) StartBucket(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ensureBucket(name)
}

// AddObject records one scanned object.
func (a *Aggregator) AddObject(result ObjectResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	section := a.ensureBucket(result.Object.Bucket)
	section.Objects = append(section.Objects, result)
}

// AddSkipped counts an object excluded by filtering before any scan work.
func (a *Aggregator) AddSkipped() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.skipped++
}

// AddDiagnostic records a non-fatal degradation.
func (a *Aggregator) AddDiagnostic(d Diagnostic) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.diagnostics = append(a.diagnostics, d)
}

func (a *Aggregator) ensureBucket(name string) *BucketSection {
	if section, ok := a.buckets[name]; ok {
		return section
	}
	section := &BucketSection{Bucket: name}
	a.buckets[name] = section
	a.order = append(a.order, name)
	return section
}

// Finalize sorts the accumulated results and computes the summary. Buckets
// keep listing order; objects sort by key; findings sort by offset then
// category so concurrent workers cannot reorder the report.
func (a *Aggregator) Finalize() *Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	report := &Report{
		Buckets:     make([]BucketSection, 0, len(a.order)),
		Diagnostics: a.diagnostics,
	}

	summary := Summary{
		BucketsScanned: len(a.order),
		ObjectsSkipped: a.skipped,
	}

	for _, name := range a.order {
		section := a.buckets[name]
		sort.Slice(section.Objects, func(i, j int) bool {
			return section.Objects[i].Object.Key < section.Objects[j].Object.Key
		})

		for i := range section.Objects {
			obj := &section.Objects[i]
			sort.Slice(obj.Findings, func(x, y int) bool {
				fx, fy := obj.Findings[x], obj.Findings[y]
				if fx.StartOffset != fy.StartOffset {
					return fx.StartOffset < fy.StartOffset
				}
				return fx.Category < fy.Category
			})

			summary.ObjectsScanned++
			switch obj.Exposure {
			case s3pkg.ExposurePublic:
				summary.PublicObjects++
			case s3pkg.ExposurePrivate:
				summary.PrivateObjects++
			case s3pkg.ExposureUnknown:
				summary.UnknownObjects++
			}
			if obj.AgeFlag != nil {
				summary.OldObjects++
				summary.OldObjectsSize += obj.Object.Size
			}
			for _, f := range obj.Findings {
				summary.TotalFindings++
				if summary.FindingsBySeverity == nil {
					summary.FindingsBySeverity = make(map[scanner.Severity]int)
				}
				summary.FindingsBySeverity[f.Severity]++
			}
		}

		report.Buckets = append(report.Buckets, *section)
	}

	sort.Slice(report.Diagnostics, func(i, j int) bool {
		di, dj := report.Diagnostics[i], report.Diagnostics[j]
		if di.Bucket != dj.Bucket {
			return di.Bucket < dj.Bucket
		}
		if di.Object != dj.Object {
			return di.Object < dj.Object
		}
		return di.Stage < dj.Stage
	})

	report.Summary = summary
	return report
}
