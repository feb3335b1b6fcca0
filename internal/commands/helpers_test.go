package commands

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ppiankov/s3sentry/internal/report"
)

func TestEnhanceError(t *testing.T) {
	if enhanceError("op", nil, 1) != nil {
		t.Fatalf("expected nil error when input is nil")
	}

	cases := []struct {
		err      error
		contains string
	}{
		{errors.New("NoCredentialProviders"), "No AWS credentials found"},
		{errors.New("AccessDenied"), "Access Denied"},
		{errors.New("RequestLimitExceeded"), "rate limit exceeded"},
		{errors.New("some other error"), "op failed"},
	}

	for _, tt := range cases {
		err := enhanceError("op", tt.err, 5)
		if err == nil {
			t.Fatalf("expected error for %v", tt.err)
		}
		if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.contains)) {
			t.Fatalf("expected error to contain %q, got %q", tt.contains, err.Error())
		}
	}
}

func TestSelectReporter(t *testing.T) {
	var buf bytes.Buffer

	reporter, err := selectReporter("json", &buf)
	if err != nil {
		t.Fatalf("expected no error for json, got %v", err)
	}
	if _, ok := reporter.(*report.JSONReporter); !ok {
		t.Fatalf("expected JSONReporter, got %T", reporter)
	}

	reporter, err = selectReporter("text", &buf)
	if err != nil {
		t.Fatalf("expected no error for text, got %v", err)
	}
	if _, ok := reporter.(*report.TextReporter); !ok {
		t.Fatalf("expected TextReporter, got %T", reporter)
	}

	reporter, err = selectReporter("sarif", &buf)
	if err != nil {
		t.Fatalf("expected no error for sarif, got %v", err)
	}
	if _, ok := reporter.(*report.SARIFReporter); !ok {
		t.Fatalf("expected SARIFReporter, got %T", reporter)
	}

	reporter, err = selectReporter("html", &buf)
	if err != nil {
		t.Fatalf("expected no error for html, got %v", err)
	}
	if _, ok := reporter.(*report.HTMLReporter); !ok {
		t.Fatalf("expected HTMLReporter, got %T", reporter)
	}

	reporter, err = selectReporter("tree", &buf)
	if err != nil {
		t.Fatalf("expected no error for tree, got %v", err)
	}
	if _, ok := reporter.(*report.TreeReporter); !ok {
		t.Fatalf("expected TreeReporter, got %T", reporter)
	}

	_, err = selectReporter("xml", &buf)
	if err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported output format") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	oldLogger := slog.Default()
	slog.SetDefault(logger)
	t.Cleanup(func() {
		slog.SetDefault(oldLogger)
	})

	printStatus("hello %s", "world")

	if !strings.Contains(buf.String(), "hello world") {
		t.Fatalf("expected output to contain message, got %q", buf.String())
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != "dev" {
		t.Fatalf("expected default version %q, got %q", "dev", GetVersion())
	}

	version = "1.2.3"
	t.Cleanup(func() { version = "dev" })
	if GetVersion() != "1.2.3" {
		t.Fatalf("expected version %q, got %q", "1.2.3", GetVersion())
	}
}
