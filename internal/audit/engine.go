// Package audit orchestrates scans: it walks bucket listings, fans work out
// to a bounded worker pool and aggregates the results into a report.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ppiankov/s3sentry/internal/analyzer"
	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
	"github.com/ppiankov/s3sentry/internal/scanner"
)

const defaultConcurrency = 10

// ObjectSource is a forward-only stream of object descriptors.
type ObjectSource interface {
	Next(ctx context.Context) bool
	Object() s3pkg.Object
	Err() error
}

// Store is the storage capability the engine needs. The concrete
// implementation lives in the s3 package; tests substitute fakes.
type Store interface {
	ListBuckets(ctx context.Context) ([]string, error)
	Objects(bucket, prefix string) ObjectSource
	ClassifyObject(ctx context.Context, bucket, key string) (s3pkg.ExposureStatus, error)
	Fetch(ctx context.Context, obj s3pkg.Object) ([]byte, error)
}

// Options selects the scan scope and behavior.
type Options struct {
	// Buckets to scan. Ignored when AllBuckets is set.
	Buckets    []string
	AllBuckets bool

	// Folder restricts the scan to keys under this prefix.
	Folder string

	// PublicOnly limits content detection to publicly exposed objects.
	PublicOnly bool

	// FileTypes is an explicit extension filter. Empty means the default
	// exclusion list applies; "all" disables filtering.
	FileTypes []string

	// NoMask keeps raw matched text in findings.
	NoMask bool

	// DayThreshold is the age cutoff in days for old-object scans.
	DayThreshold int

	Concurrency int

	// Progress, when set, is called once per dispatched object.
	Progress func(bucket, key string)
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return defaultConcurrency
}

// Engine runs scans against a Store.
type Engine struct {
	store    Store
	pipeline *scanner.Pipeline
	now      func() time.Time
}

// NewEngine creates an engine. pipeline may be nil for scans that never touch
// object content.
func NewEngine(store Store, pipeline *scanner.Pipeline) *Engine {
	return &Engine{
		store:    store,
		pipeline: pipeline,
		now:      time.Now,
	}
}

// ScanExposure classifies every object in scope as public, private or
// unknown.
func (e *Engine) ScanExposure(ctx context.Context, opts Options) (*analyzer.Report, error) {
	return e.run(ctx, opts, func(ctx context.Context, agg *analyzer.Aggregator, obj s3pkg.Object) {
		status, err := e.store.ClassifyObject(ctx, obj.Bucket, obj.Key)
		if err != nil {
			agg.AddDiagnostic(analyzer.Diagnostic{
				Bucket: obj.Bucket,
				Object: obj.Key,
				Stage:  "exposure",
				Detail: err.Error(),
			})
		}
		agg.AddObject(analyzer.ObjectResult{Object: obj, Exposure: status})
	})
}

// ScanSensitive runs content detection over every object in scope. Detector
// degradation is recorded as a diagnostic, never as a scan failure.
func (e *Engine) ScanSensitive(ctx context.Context, opts Options) (*analyzer.Report, error) {
	var toolDiag sync.Once

	return e.run(ctx, opts, func(ctx context.Context, agg *analyzer.Aggregator, obj s3pkg.Object) {
		if !e.pipeline.ShouldScan(obj.Key, opts.FileTypes) {
			agg.AddSkipped()
			return
		}

		status, classifyErr := e.store.ClassifyObject(ctx, obj.Bucket, obj.Key)
		if classifyErr != nil {
			agg.AddDiagnostic(analyzer.Diagnostic{
				Bucket: obj.Bucket,
				Object: obj.Key,
				Stage:  "exposure",
				Detail: classifyErr.Error(),
			})
		}
		result := analyzer.ObjectResult{Object: obj, Exposure: status}

		// PublicOnly scopes content detection, not report membership: the
		// object still appears with its exposure so the summary's private
		// and unknown counts stay truthful.
		if opts.PublicOnly && status != s3pkg.ExposurePublic {
			agg.AddObject(result)
			return
		}

		content, err := e.store.Fetch(ctx, obj)
		if err != nil {
			var unreadable *s3pkg.ContentUnreadableError
			if errors.As(err, &unreadable) {
				agg.AddDiagnostic(analyzer.Diagnostic{
					Bucket: obj.Bucket,
					Object: obj.Key,
					Stage:  "content",
					Detail: err.Error(),
				})
				agg.AddObject(result)
				return
			}
			agg.AddDiagnostic(analyzer.Diagnostic{
				Bucket: obj.Bucket,
				Object: obj.Key,
				Stage:  "fetch",
				Detail: err.Error(),
			})
			agg.AddObject(result)
			return
		}

		findings, detectErr := e.pipeline.Detect(ctx, obj, content)
		if detectErr != nil {
			var toolErr *scanner.ToolUnavailableError
			if errors.As(detectErr, &toolErr) {
				toolDiag.Do(func() {
					slog.Warn("external scanner unavailable, continuing with regex detection only",
						"tool", toolErr.Tool, "error", toolErr.Err)
					agg.AddDiagnostic(analyzer.Diagnostic{
						Stage:  "gitleaks",
						Detail: detectErr.Error(),
					})
				})
			} else {
				agg.AddDiagnostic(analyzer.Diagnostic{
					Bucket: obj.Bucket,
					Object: obj.Key,
					Stage:  "detect",
					Detail: detectErr.Error(),
				})
			}
		}

		result.Findings = scanner.MaskFindings(findings, opts.NoMask)
		agg.AddObject(result)
	})
}

// ScanOld reports objects whose last modification is strictly older than the
// day threshold. Objects within the threshold count as skipped.
func (e *Engine) ScanOld(ctx context.Context, opts Options) (*analyzer.Report, error) {
	now := e.now()

	return e.run(ctx, opts, func(ctx context.Context, agg *analyzer.Aggregator, obj s3pkg.Object) {
		flag := analyzer.CheckAge(now, obj.LastModified, opts.DayThreshold)
		if flag == nil {
			agg.AddSkipped()
			return
		}
		agg.AddObject(analyzer.ObjectResult{Object: obj, AgeFlag: flag})
	})
}

// run walks every bucket in scope and dispatches each object to the worker
// function on a bounded pool. In multi-bucket mode an inaccessible bucket is
// a diagnostic; in single-bucket mode it fails the scan.
func (e *Engine) run(ctx context.Context, opts Options, work func(context.Context, *analyzer.Aggregator, s3pkg.Object)) (*analyzer.Report, error) {
	buckets := opts.Buckets
	if opts.AllBuckets {
		var err error
		buckets, err = e.store.ListBuckets(ctx)
		if err != nil {
			return nil, err
		}
	}

	agg := analyzer.NewAggregator()
	sem := make(chan struct{}, opts.concurrency())
	var wg sync.WaitGroup

	multiBucket := opts.AllBuckets || len(buckets) > 1

dispatch:
	for _, bucket := range buckets {
		agg.StartBucket(bucket)

		it := e.store.Objects(bucket, opts.Folder)
		for it.Next(ctx) {
			obj := it.Object()

			if ctx.Err() != nil {
				break dispatch
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break dispatch
			}

			if opts.Progress != nil {
				opts.Progress(obj.Bucket, obj.Key)
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				work(ctx, agg, obj)
			}()
		}

		if err := it.Err(); err != nil {
			var accessErr *s3pkg.AccessError
			if multiBucket && errors.As(err, &accessErr) {
				slog.Warn("skipping inaccessible bucket", "bucket", bucket, "error", err)
				agg.AddDiagnostic(analyzer.Diagnostic{
					Bucket: bucket,
					Stage:  "list",
					Detail: err.Error(),
				})
				continue
			}
			wg.Wait()
			return nil, err
		}
	}

	wg.Wait()

	// On cancellation the partial report is still returned so the caller
	// can render what was aggregated before the interrupt.
	if err := ctx.Err(); err != nil {
		return agg.Finalize(), err
	}
	return agg.Finalize(), nil
}
