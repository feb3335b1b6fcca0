package audit

import (
	"context"

	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
)

// s3Store adapts the concrete s3 helpers to the Store interface.
type s3Store struct {
	lister    *s3pkg.Lister
	inspector *s3pkg.Inspector
	fetcher   *s3pkg.Fetcher
}

// NewStore wraps an s3 client as an engine Store.
func NewStore(client *s3pkg.Client) Store {
	return &s3Store{
		lister:    s3pkg.NewLister(client),
		inspector: s3pkg.NewInspector(client),
		fetcher:   s3pkg.NewFetcher(client),
	}
}

func (s *s3Store) ListBuckets(ctx context.Context) ([]string, error) {
	return s.lister.ListBuckets(ctx)
}

func (s *s3Store) Objects(bucket, prefix string) ObjectSource {
	return s.lister.Objects(bucket, prefix)
}

func (s *s3Store) ClassifyObject(ctx context.Context, bucket, key string) (s3pkg.ExposureStatus, error) {
	return s.inspector.ClassifyObject(ctx, bucket, key)
}

func (s *s3Store) Fetch(ctx context.Context, obj s3pkg.Object) ([]byte, error) {
	return s.fetcher.Fetch(ctx, obj)
}
