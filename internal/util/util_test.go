package util

import (
	"testing"
	"time"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "Plain integer", input: "8", want: 8, ok: true},
		{name: "Decimal", input: "8.99", want: 8.99, ok: true},
		{name: "Dollar sign", input: "$12.50", want: 12.5, ok: true},
		{name: "Comma decimal", input: "12,50", want: 12.5, ok: true},
		{name: "Embedded amount stays text", input: "$8 off", ok: false},
		{name: "Words", input: "free appetizer", ok: false},
		{name: "Empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMoney(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseMoney(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseMoney(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{name: "RFC3339", input: "2026-09-03T10:00:00Z", want: timePtr(time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC))},
		{name: "Date only", input: "2026-09-03", want: timePtr(time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC))},
		{name: "US slashes", input: "09/03/2026", want: timePtr(time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC))},
		{name: "Unparsable becomes nil", input: "next tuesday", want: nil},
		{name: "Empty", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDateIdempotent(t *testing.T) {
	first := ParseDate("2026-09-03")
	second := ParseDate("2026-09-03")
	if !first.Equal(*second) {
		t.Errorf("ParseDate not idempotent: %v vs %v", first, second)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello   world  ", "hello world"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := CollapseWhitespace(tt.input); got != tt.want {
			t.Errorf("CollapseWhitespace(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsAbsoluteURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://example.com/deal", true},
		{"http://example.com", true},
		{"/relative/path", false},
		{"example.com/no-scheme", false},
		{"ftp://example.com", false},
		{"", false},
		{"::bad::", false},
	}

	for _, tt := range tests {
		if got := IsAbsoluteURL(tt.input); got != tt.want {
			t.Errorf("IsAbsoluteURL(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Forces https",
			input: "http://example.com/deal",
			want:  "https://example.com/deal",
		},
		{
			name:  "Strips trailing slash",
			input: "https://example.com/deal/",
			want:  "https://example.com/deal",
		},
		{
			name:  "Strips tracking params",
			input: "https://example.com/deal?utm_source=x&id=7&fbclid=abc",
			want:  "https://example.com/deal?id=7",
		},
		{
			name:  "Lowercases host",
			input: "https://Example.COM/deal",
			want:  "https://example.com/deal",
		},
		{
			name:  "Root path untouched",
			input: "https://example.com/",
			want:  "https://example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
