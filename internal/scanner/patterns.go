package scanner

import (
	"regexp"

	"github.com/ppiankov/s3sentry/internal/config"
)

// Rule is one compiled detection pattern. When the regex has capture groups,
// the last non-empty group is the secret candidate; otherwise the whole match
// is used.
type Rule struct {
	Category string
	Severity Severity
	Source   string
	Regex    *regexp.Regexp
}

// builtinRules are the known secret shapes, evaluated in declaration order so
// detector output stays deterministic.
var builtinRules = []Rule{
	{
		Category: "AWS Access Key",
		Severity: SeverityCritical,
		Source:   SourceBuiltin,
		Regex:    regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
	},
	{
		Category: "AWS Secret Key",
		Severity: SeverityCritical,
		Source:   SourceBuiltin,
		Regex:    regexp.MustCompile(`(?i)aws.{0,20}(?:secret|private).{0,20}['"]([0-9A-Za-z/+=]{40})['"]`),
	},
	{
		Category: "Google API Key",
		Severity: SeverityCritical,
		Source:   SourceBuiltin,
		Regex:    regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`),
	},
	{
		Category: "Private Key",
		Severity: SeverityCritical,
		Source:   SourceBuiltin,
		Regex:    regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`),
	},
	{
		Category: "Slack Token",
		Severity: SeverityHigh,
		Source:   SourceBuiltin,
		Regex:    regexp.MustCompile(`\bxox[baprs]-[0-9A-Za-z-]{10,48}\b`),
	},
	{
		Category: "Password Assignment",
		Severity: SeverityHigh,
		Source:   SourceBuiltin,
		Regex:    regexp.MustCompile(`(?i)(?:password|passwd|pwd)\s*[:=]\s*['"]?([^'"\s]{6,})`),
	},
	{
		Category: "Generic API Key",
		Severity: SeverityHigh,
		Source:   SourceBuiltin,
		Regex:    regexp.MustCompile(`(?i)(?:api[_-]?key|auth[_-]?token|access[_-]?token|secret[_-]?key)\s*[:=]\s*['"]?([0-9A-Za-z\-_.]{16,})`),
	},
	{
		Category: "Email Address",
		Severity: SeverityMedium,
		Source:   SourceBuiltin,
		Regex:    regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	},
}

// Rules returns the full rule set: builtins first, then user-supplied custom
// patterns. Custom patterns are appended, never replacing builtins.
func Rules(custom []config.CompiledPattern) []Rule {
	rules := make([]Rule, 0, len(builtinRules)+len(custom))
	rules = append(rules, builtinRules...)
	for _, p := range custom {
		rules = append(rules, Rule{
			Category: p.Category,
			Severity: ParseSeverity(p.Severity),
			Source:   SourceCustom,
			Regex:    p.Regex,
		})
	}
	return rules
}
