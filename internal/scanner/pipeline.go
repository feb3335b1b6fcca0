package scanner

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/ppiankov/s3sentry/internal/config"
	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
)

// defaultExcludedExtensions are skipped when the caller supplies no explicit
// file-type filter.
var defaultExcludedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".bmp": {}, ".tiff": {}, ".webp": {}, ".glb": {},
}

// Pipeline runs object content through the ordered detector layers: builtin
// regex rules, custom rules, then the external secret scanner.
type Pipeline struct {
	rules    []Rule
	external SecretScanner
}

// NewPipeline builds a pipeline from the custom pattern table. external may
// be nil when the external scanner is excluded.
func NewPipeline(custom []config.CompiledPattern, external SecretScanner) *Pipeline {
	return &Pipeline{
		rules:    Rules(custom),
		external: external,
	}
}

// ShouldScan applies the file-extension filter. An explicit filter list wins
// over the default exclusions; "all" disables filtering entirely.
func (p *Pipeline) ShouldScan(key string, fileTypes []string) bool {
	ext := strings.ToLower(path.Ext(key))
	if len(fileTypes) > 0 {
		for _, ft := range fileTypes {
			if ft == "all" || ft == ext {
				return true
			}
		}
		return false
	}
	_, excluded := defaultExcludedExtensions[ext]
	return !excluded
}

// Detect runs all detector layers over the content and returns deduplicated
// findings. A non-nil error reports external-scanner degradation; regex
// findings are still valid in that case and the scan must continue.
func (p *Pipeline) Detect(ctx context.Context, obj s3pkg.Object, content []byte) ([]Finding, error) {
	var findings []Finding
	seen := make(map[string]struct{})

	keep := func(f Finding) {
		// Two findings are duplicates only when category and byte span both
		// match; the first detector layer wins. Different categories on the
		// same span are all reported.
		key := fmt.Sprintf("%s|%d|%d", f.Category, f.StartOffset, f.EndOffset)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		findings = append(findings, f)
	}

	for _, rule := range p.rules {
		for _, m := range matchRule(rule, content) {
			keep(Finding{
				Bucket:      obj.Bucket,
				Object:      obj.Key,
				Source:      rule.Source,
				Category:    rule.Category,
				Severity:    rule.Severity,
				Line:        lineAt(content, m.start),
				StartOffset: m.start,
				EndOffset:   m.end,
				Match:       m.text,
			})
		}
	}

	if p.external == nil {
		return findings, nil
	}

	matches, err := p.external.Scan(ctx, content)
	if err != nil {
		return findings, err
	}
	for _, m := range matches {
		start, end := locateSecret(content, m.StartLine, m.Secret)
		keep(Finding{
			Bucket:      obj.Bucket,
			Object:      obj.Key,
			Source:      SourceGitleaks,
			Category:    m.Description,
			Severity:    SeverityHigh,
			Line:        m.StartLine,
			StartOffset: start,
			EndOffset:   end,
			Match:       m.Secret,
		})
	}

	return findings, nil
}

type ruleMatch struct {
	start int
	end   int
	text  string
}

// matchRule applies one rule, resolving the secret candidate as the last
// non-empty capture group or the whole match.
func matchRule(rule Rule, content []byte) []ruleMatch {
	idxs := rule.Regex.FindAllSubmatchIndex(content, -1)
	if idxs == nil {
		return nil
	}

	matches := make([]ruleMatch, 0, len(idxs))
	for _, idx := range idxs {
		start, end := idx[0], idx[1]
		for gi := len(idx)/2 - 1; gi >= 1; gi-- {
			if idx[2*gi] >= 0 {
				start, end = idx[2*gi], idx[2*gi+1]
				break
			}
		}
		text := strings.TrimSpace(string(content[start:end]))
		if text == "" {
			continue
		}
		matches = append(matches, ruleMatch{start: start, end: end, text: text})
	}
	return matches
}

// lineAt returns the 1-based line number of a byte offset.
func lineAt(content []byte, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	return 1 + bytes.Count(content[:offset], []byte{'\n'})
}

// locateSecret resolves the byte span of an external match so it shares dedup
// identity with the regex layers. Falls back to a whole-content search when
// the reported line does not contain the secret.
func locateSecret(content []byte, line int, secret string) (int, int) {
	if secret == "" {
		return 0, 0
	}

	offset := 0
	current := 1
	for current < line {
		nl := bytes.IndexByte(content[offset:], '\n')
		if nl < 0 {
			break
		}
		offset += nl + 1
		current++
	}
	if i := bytes.Index(content[offset:], []byte(secret)); i >= 0 {
		start := offset + i
		return start, start + len(secret)
	}
	if i := bytes.Index(content, []byte(secret)); i >= 0 {
		return i, i + len(secret)
	}
	return 0, 0
}
