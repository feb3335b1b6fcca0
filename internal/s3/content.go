package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
)

const (
	// maxContentBytes caps how much of an object is fetched for content
	// detection.
	maxContentBytes = 1 << 20 // 1 MiB

	// largeObjectBytes is the size above which only the leading
	// maxContentBytes are fetched via a ranged read.
	largeObjectBytes = 5 << 20 // 5 MiB
)

// Fetcher downloads object content for the detector pipeline.
type Fetcher struct {
	client *Client
}

// NewFetcher creates a new content Fetcher.
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch returns up to maxContentBytes of the object's content. Unreadable or
// binary content yields a ContentUnreadableError; the caller skips content
// detection for that object only.
func (f *Fetcher) Fetch(ctx context.Context, obj Object) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	}
	if obj.Size > largeObjectBytes {
		input.Range = aws.String(fmt.Sprintf("bytes=0-%d", maxContentBytes-1))
	}

	var result *s3.GetObjectOutput
	err := f.client.WithRetry(ctx, func() error {
		var err error
		result, err = f.client.s3Client.GetObject(ctx, input)
		return err
	})
	if err != nil {
		return nil, &ContentUnreadableError{
			Bucket: obj.Bucket,
			Key:    obj.Key,
			Reason: "fetch failed",
			Err:    classifyError("get object", obj.Bucket, obj.Key, err),
		}
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(result.Body, maxContentBytes))
	if err != nil {
		return nil, &ContentUnreadableError{
			Bucket: obj.Bucket,
			Key:    obj.Key,
			Reason: "read failed",
			Err:    err,
		}
	}

	if len(data) > 0 && !isTextual(data) {
		return nil, &ContentUnreadableError{
			Bucket: obj.Bucket,
			Key:    obj.Key,
			Reason: fmt.Sprintf("binary content (%s)", mimetype.Detect(data).String()),
		}
	}

	return data, nil
}

// isTextual reports whether the sniffed MIME type descends from text/plain,
// which covers JSON, XML, CSV and friends in the detection hierarchy.
func isTextual(data []byte) bool {
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}
	return false
}
