package scanner

// Severity tiers for findings.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ParseSeverity maps a config string to a Severity, defaulting to medium.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s)
	default:
		return SeverityMedium
	}
}

// Detector sources, in pipeline order.
const (
	SourceBuiltin  = "builtin-regex"
	SourceCustom   = "custom-regex"
	SourceGitleaks = "gitleaks"
)

// Finding is one detection result. Immutable once created; ownership
// transfers to the aggregator.
type Finding struct {
	Bucket      string   `json:"bucket"`
	Object      string   `json:"object"`
	Source      string   `json:"source"`
	Category    string   `json:"category"`
	Severity    Severity `json:"severity"`
	Line        int      `json:"line,omitempty"`
	StartOffset int      `json:"start_offset"`
	EndOffset   int      `json:"end_offset"`

	// Match is the raw matched text. Cleared by the masking service unless
	// the caller explicitly opted out of masking.
	Match  string `json:"match,omitempty"`
	Masked string `json:"masked"`
}
