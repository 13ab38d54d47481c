package grading

import (
	"regexp"
	"strings"
)

// MatchOptions toggles the tolerance rules applied when comparing a
// submitted answer against the canonical one. Each axis is independent.
type MatchOptions struct {
	// DashTolerance lets a dash in the canonical answer be typed as a dash,
	// a single whitespace, or dropped entirely.
	DashTolerance bool
	// SpaceTolerance lets a space in the canonical answer be dropped.
	// A space may never be replaced with a dash.
	SpaceTolerance bool
	// YoTolerance lets the letter ё be typed as е.
	YoTolerance bool
}

// DefaultOptions enables every tolerance rule. Single-word archetypes
// usually switch dash/space tolerance off.
func DefaultOptions() MatchOptions {
	return MatchOptions{DashTolerance: true, SpaceTolerance: true, YoTolerance: true}
}

// Match reports whether submitted satisfies canonical under opts.
// Comparison is case-insensitive and anchored: the submission may never
// introduce a separator the canonical answer does not contain.
func Match(submitted, canonical string, opts MatchOptions) bool {
	var b strings.Builder
	b.WriteString(`(?i)^`)
	for _, r := range strings.ToLower(canonical) {
		switch {
		case r == '-' && opts.DashTolerance:
			b.WriteString(`[-\s]?`)
		case r == ' ' && opts.SpaceTolerance:
			b.WriteString(`\s?`)
		case r == 'ё' && opts.YoTolerance:
			b.WriteString(`[её]`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(strings.TrimSpace(submitted))
}

// MatchAny matches against every `;`-separated alternative in canonical.
func MatchAny(submitted, canonical string, opts MatchOptions) bool {
	for _, alt := range Alternatives(canonical) {
		if Match(submitted, alt, opts) {
			return true
		}
	}
	return false
}

// Alternatives splits a canonical answer into its `;`-separated variants,
// trimmed, empty ones dropped.
func Alternatives(canonical string) []string {
	parts := strings.Split(canonical, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
