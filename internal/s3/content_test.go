package s3

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func bytesResponse(body []byte) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/octet-stream"}},
		Body:       io.NopCloser(strings.NewReader(string(body))),
	}
}

func TestFetcher_TextContent(t *testing.T) {
	content := []byte("password = \"hunter2-long\"\n")
	client := newTestClient(t, roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return bytesResponse(content), nil
	}))

	data, err := NewFetcher(client).Fetch(context.Background(), Object{Bucket: "demo", Key: "conf.txt", Size: int64(len(content))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != string(content) {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestFetcher_BinaryContentSkipped(t *testing.T) {
	// PNG magic bytes.
	content := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}
	client := newTestClient(t, roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return bytesResponse(content), nil
	}))

	_, err := NewFetcher(client).Fetch(context.Background(), Object{Bucket: "demo", Key: "logo.png", Size: int64(len(content))})

	var unreadable *ContentUnreadableError
	if !errors.As(err, &unreadable) {
		t.Fatalf("expected ContentUnreadableError, got %v", err)
	}
	if !strings.Contains(unreadable.Reason, "binary content") {
		t.Fatalf("unexpected reason: %q", unreadable.Reason)
	}
}

func TestFetcher_LargeObjectUsesRangedRead(t *testing.T) {
	var gotRange string
	client := newTestClient(t, roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		gotRange = req.Header.Get("Range")
		return bytesResponse([]byte("partial text")), nil
	}))

	_, err := NewFetcher(client).Fetch(context.Background(), Object{Bucket: "demo", Key: "big.log", Size: 10 << 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotRange != "bytes=0-1048575" {
		t.Fatalf("expected ranged read header, got %q", gotRange)
	}
}

func TestFetcher_FetchFailure(t *testing.T) {
	client := newTestClient(t, roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return errorResponse(http.StatusForbidden, "AccessDenied"), nil
	}))

	_, err := NewFetcher(client).Fetch(context.Background(), Object{Bucket: "demo", Key: "secret.txt", Size: 10})

	var unreadable *ContentUnreadableError
	if !errors.As(err, &unreadable) {
		t.Fatalf("expected ContentUnreadableError, got %v", err)
	}
}

func TestIsTextual(t *testing.T) {
	if !isTextual([]byte(`{"key": "value"}`)) {
		t.Fatal("expected JSON to be textual")
	}
	if isTextual([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		t.Fatal("expected PNG bytes to be binary")
	}
}
