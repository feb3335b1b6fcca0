package scanner

import "regexp"

// maskedShape matches the output format of MaskValue, so masking already
// masked text is a no-op.
var maskedShape = regexp.MustCompile(`^(?:.{4}\.\.\..{4}|\.\.\.)$`)

// MaskValue redacts a secret, keeping the first and last four characters when
// the value is long enough to stay unidentifiable. Counts runes, not bytes,
// so multi-byte secrets are never split mid-rune. Idempotent.
func MaskValue(s string) string {
	if IsMasked(s) {
		return s
	}
	r := []rune(s)
	if len(r) > 8 {
		return string(r[:4]) + "..." + string(r[len(r)-4:])
	}
	return "..."
}

// IsMasked reports whether a value is already in masked form.
func IsMasked(s string) bool {
	return maskedShape.MatchString(s)
}

// MaskFindings fills each finding's masked variant. Unless noMask was
// explicitly requested, the raw match is cleared so it cannot reach a
// renderer.
func MaskFindings(findings []Finding, noMask bool) []Finding {
	out := make([]Finding, len(findings))
	for i, f := range findings {
		f.Masked = MaskValue(f.Match)
		if !noMask {
			f.Match = ""
		}
		out[i] = f
	}
	return out
}
