package s3

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const listPageSize = 1000

// Lister enumerates buckets and objects. Object enumeration is lazy: pages
// are fetched as the iterator advances, so huge buckets are never
// materialized in memory.
type Lister struct {
	client *Client
}

// NewLister creates a new Lister backed by the shared client.
func NewLister(client *Client) *Lister {
	return &Lister{client: client}
}

// ListBuckets returns the names of all buckets in the account, in the order
// the provider returns them.
func (l *Lister) ListBuckets(ctx context.Context) ([]string, error) {
	var result *s3.ListBucketsOutput
	err := l.client.WithRetry(ctx, func() error {
		var err error
		result, err = l.client.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
		return err
	})
	if err != nil {
		return nil, classifyError("list buckets", "", "", err)
	}

	names := make([]string, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		if b.Name != nil {
			names = append(names, *b.Name)
		}
	}
	return names, nil
}

// Objects returns a forward-only iterator over the objects in a bucket under
// the given prefix. Pagination tokens are never visible to the caller.
func (l *Lister) Objects(bucket, prefix string) *ObjectIterator {
	return &ObjectIterator{
		lister: l,
		bucket: bucket,
		prefix: prefix,
	}
}

// ObjectIterator walks ListObjectsV2 pages one object at a time. Usage:
//
//	it := lister.Objects(bucket, prefix)
//	for it.Next(ctx) {
//	    obj := it.Object()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
type ObjectIterator struct {
	lister *Lister
	bucket string
	prefix string

	page  []Object
	idx   int
	token *string
	done  bool
	err   error
}

// Next advances the iterator, fetching the next page when the current one is
// exhausted. Returns false at the end of the listing or on error.
func (it *ObjectIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	for {
		if it.idx < len(it.page) {
			it.idx++
			return true
		}
		if it.done {
			return false
		}
		if !it.fetchPage(ctx) {
			return false
		}
	}
}

// Object returns the descriptor the iterator currently points at.
func (it *ObjectIterator) Object() Object {
	return it.page[it.idx-1]
}

// Err returns the error that stopped iteration, if any.
func (it *ObjectIterator) Err() error {
	return it.err
}

func (it *ObjectIterator) fetchPage(ctx context.Context) bool {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(it.bucket),
		MaxKeys: aws.Int32(listPageSize),
	}
	if it.prefix != "" {
		input.Prefix = aws.String(it.prefix)
	}
	if it.token != nil {
		input.ContinuationToken = it.token
	}

	var result *s3.ListObjectsV2Output
	err := it.lister.client.WithRetry(ctx, func() error {
		var err error
		result, err = it.lister.client.s3Client.ListObjectsV2(ctx, input)
		return err
	})
	if err != nil {
		it.err = classifyError("list objects", it.bucket, "", err)
		return false
	}

	page := make([]Object, 0, len(result.Contents))
	for _, obj := range result.Contents {
		if obj.Key == nil || strings.HasSuffix(*obj.Key, "/") {
			// Folder placeholder keys carry no content.
			continue
		}
		o := Object{
			Bucket:       it.bucket,
			Key:          *obj.Key,
			StorageClass: string(obj.StorageClass),
			LastModified: obj.LastModified,
		}
		if obj.Size != nil {
			o.Size = *obj.Size
		}
		page = append(page, o)
	}

	it.page = page
	it.idx = 0

	if result.IsTruncated != nil && *result.IsTruncated {
		it.token = result.NextContinuationToken
	} else {
		it.done = true
	}
	return true
}
