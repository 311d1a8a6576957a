package utils

import "testing"

func TestCanonicalDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already canonical",
			input:    "example.com",
			expected: "example.com",
		},
		{
			name:     "uppercase",
			input:    "EXAMPLE.COM",
			expected: "example.com",
		},
		{
			name:     "trailing dot",
			input:    "example.com.",
			expected: "example.com",
		},
		{
			name:     "multiple trailing dots",
			input:    "example.com..",
			expected: "example.com",
		},
		{
			name:     "surrounding whitespace",
			input:    "  example.com  ",
			expected: "example.com",
		},
		{
			name:     "mixed case with whitespace and dot",
			input:    " WwW.ExAmPlE.CoM. ",
			expected: "www.example.com",
		},
		{
			name:     "unicode label to punycode",
			input:    "bücher.example",
			expected: "xn--bcher-kva.example",
		},
		{
			name:     "already punycode stays put",
			input:    "xn--bcher-kva.example",
			expected: "xn--bcher-kva.example",
		},
		{
			name:     "wildcard passes through unconverted",
			input:    "*.example.com",
			expected: "*.example.com",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanonicalDomain(tt.input)
			if got != tt.expected {
				t.Errorf("CanonicalDomain(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonicalDomain_Idempotent(t *testing.T) {
	inputs := []string{"example.com", "EXAMPLE.COM.", "  bücher.example  ", "*.example.com"}
	for _, input := range inputs {
		first := CanonicalDomain(input)
		second := CanonicalDomain(first)
		if first != second {
			t.Errorf("CanonicalDomain is not idempotent for %q: first=%q, second=%q", input, first, second)
		}
	}
}
