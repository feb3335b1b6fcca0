package s3

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client wraps the AWS S3 client. A single Client is shared read-only across
// all concurrent scan tasks.
type Client struct {
	s3Client *s3.Client
	config   aws.Config
}

// NewClient creates a new S3 client from the shared AWS config chain.
func NewClient(ctx context.Context, profile, region string) (*Client, error) {
	opts := []func(*config.LoadOptions) error{}

	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		s3Client: s3.NewFromConfig(cfg),
		config:   cfg,
	}, nil
}

// GetClient returns the underlying S3 client.
func (c *Client) GetClient() *s3.Client {
	return c.s3Client
}

// GetRegion returns the configured region.
func (c *Client) GetRegion() string {
	return c.config.Region
}

// WithRetry wraps an S3 operation with a single bounded backoff policy for
// transient errors. Non-retryable errors return immediately.
func (c *Client) WithRetry(ctx context.Context, operation func() error) error {
	const maxRetries = 3
	const baseDelay = 1 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return err
		}

		lastErr = err

		if attempt < maxRetries-1 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	retryableErrors := []string{
		"RequestLimitExceeded",
		"ServiceUnavailable",
		"SlowDown",
		"RequestTimeout",
		"TooManyRequests",
		"InternalError",
		"503",
		"429",
	}

	for _, retryable := range retryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}

	return false
}
