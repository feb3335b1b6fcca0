package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ExternalMatch is one structured match returned by the external secret
// scanner.
type ExternalMatch struct {
	RuleID      string
	Description string
	StartLine   int
	Secret      string
}

// SecretScanner is the capability interface for the external secret scanner.
// The pipeline holds it behind this boundary so tests can inject a double
// without touching engine logic.
type SecretScanner interface {
	Scan(ctx context.Context, content []byte) ([]ExternalMatch, error)
}

// ToolUnavailableError means the external scanner is missing or broken. Only
// that detector layer degrades; the scan itself continues.
type ToolUnavailableError struct {
	Tool string
	Err  error
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("external scanner %s unavailable: %v", e.Tool, e.Err)
}

func (e *ToolUnavailableError) Unwrap() error { return e.Err }

// gitleaksFinding mirrors the gitleaks JSON report entry.
type gitleaksFinding struct {
	Description string `json:"Description"`
	StartLine   int    `json:"StartLine"`
	RuleID      string `json:"RuleID"`
	Secret      string `json:"Secret"`
}

// GitleaksScanner invokes the gitleaks binary over a temp file. Subprocess
// concurrency is bounded: spawning is expensive and must not be unbounded.
type GitleaksScanner struct {
	path string
	sem  chan struct{}
}

// NewGitleaksScanner creates a scanner invoking the given binary, allowing at
// most maxConcurrent simultaneous subprocesses.
func NewGitleaksScanner(path string, maxConcurrent int) *GitleaksScanner {
	if path == "" {
		path = "gitleaks"
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &GitleaksScanner{
		path: path,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

// Scan writes the content to a temp file and runs gitleaks detect over it.
// Exit code 1 means leaks were found and is success; anything else non-zero
// is a tool failure.
func (g *GitleaksScanner) Scan(ctx context.Context, content []byte) ([]ExternalMatch, error) {
	select {
	case g.sem <- struct{}{}:
		defer func() { <-g.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tmp, err := os.CreateTemp("", "s3sentry-*.scan")
	if err != nil {
		return nil, &ToolUnavailableError{Tool: g.path, Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return nil, &ToolUnavailableError{Tool: g.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &ToolUnavailableError{Tool: g.path, Err: err}
	}

	cmd := exec.CommandContext(ctx, g.path, "detect",
		"--source", tmp.Name(),
		"--no-git",
		"--report-format", "json",
		"--report-path", "-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			return nil, &ToolUnavailableError{
				Tool: g.path,
				Err:  fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes())),
			}
		}
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, nil
	}

	var leaks []gitleaksFinding
	if err := json.Unmarshal(out, &leaks); err != nil {
		return nil, &ToolUnavailableError{Tool: g.path, Err: fmt.Errorf("malformed report: %w", err)}
	}

	matches := make([]ExternalMatch, 0, len(leaks))
	for _, leak := range leaks {
		matches = append(matches, ExternalMatch{
			RuleID:      leak.RuleID,
			Description: leak.Description,
			StartLine:   leak.StartLine,
			Secret:      leak.Secret,
		})
	}
	return matches, nil
}
