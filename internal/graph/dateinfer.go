package graph

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	minInferredYear = 1900
	maxInferredYear = 2100
)

// parseCanonicalDate parses a date-typed node's canonical name into an
// ISO-8601 date string, or returns ("", false) on anything that doesn't
// look like one of the accepted formats (§4.6.4).
//
// dateparse.ParseAny is deliberately permissive, so every successful parse
// is re-validated against the accepted year/month/day ranges before being
// trusted - a numeric-looking string dateparse accepts but that falls
// outside 1900-2100 is treated the same as a parse failure.
func parseCanonicalDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return "", false
	}

	year, month, day := t.Date()
	if year < minInferredYear || year > maxInferredYear {
		return "", false
	}
	if month < time.January || month > time.December {
		return "", false
	}
	if day < 1 || day > 31 {
		return "", false
	}

	return t.Format("2006-01-02"), true
}

// moreSpecific reports whether candidate fills stored: a non-empty
// candidate is more specific than a nil or empty stored value, and any
// stored value (equal or differing) is kept. It does not compare dates, so
// a candidate that would narrow an existing interval is not recognised.
func moreSpecific(stored *string, candidate string) bool {
	if candidate == "" {
		return false
	}
	if stored == nil || *stored == "" {
		return true
	}
	return false
}
