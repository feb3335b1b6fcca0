package s3

import (
	"fmt"
	"strings"
)

// AccessError means the caller lacks permission for an operation. Per-bucket
// access failures are non-fatal in multi-bucket scans; the engine records
// them and continues.
type AccessError struct {
	Bucket string
	Op     string
	Err    error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s: access denied for bucket %s: %v", e.Op, e.Bucket, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// NotFoundError means a named bucket or object does not exist. Fatal for
// single-bucket invocations.
type NotFoundError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("object %s/%s not found: %v", e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("bucket %s not found: %v", e.Bucket, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ContentUnreadableError means an object's content could not be fetched or
// decoded. Content detection is skipped for that object only.
type ContentUnreadableError struct {
	Bucket string
	Key    string
	Reason string
	Err    error
}

func (e *ContentUnreadableError) Error() string {
	return fmt.Sprintf("content of %s/%s unreadable: %s", e.Bucket, e.Key, e.Reason)
}

func (e *ContentUnreadableError) Unwrap() error { return e.Err }

// classifyError wraps AWS SDK errors into the audit error taxonomy based on
// the error code embedded in the message.
func classifyError(op, bucket, key string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "AccessDenied") || strings.Contains(msg, "Access Denied"):
		return &AccessError{Bucket: bucket, Op: op, Err: err}
	case strings.Contains(msg, "NoSuchBucket") || strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "NotFound"):
		return &NotFoundError{Bucket: bucket, Key: key, Err: err}
	default:
		return fmt.Errorf("%s failed for %s: %w", op, bucket, err)
	}
}
