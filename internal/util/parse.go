package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims a string and collapses internal whitespace runs to
// a single space.
func CollapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// plainNumberRegex matches a bare numeric value like "8", "8.99" or "12,99".
// It intentionally does not match embedded amounts ("$8 off"): those stay as
// display text rather than a guessed dollar value.
var plainNumberRegex = regexp.MustCompile(`^\$?\s*(\d+(?:[.,]\d+)?)$`)

// ParseMoney extracts a numeric USD value from a value field. It returns the
// parsed value and true only when the whole field is numeric-looking
// (optionally with a leading dollar sign). Anything else, like "$8 off" or
// "free appetizer", returns false so the caller keeps the text instead.
func ParseMoney(s string) (float64, bool) {
	m := plainNumberRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// dateLayouts are tried in order when parsing upstream expiry strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses an upstream date string defensively. Unparsable input
// returns nil, treated downstream as "no known expiry", never an error.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
