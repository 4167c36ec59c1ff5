package api

import (
	"errors"
	"testing"
)

func TestNormalizeURL_DefaultsScheme(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/page  ", "https://example.com/page"},
		{"www.example.com", "https://www.example.com"},
		{"http://example.com", "http://example.com"},
		{"https://example.com", "https://example.com"},
		{"HTTPS://example.com", "HTTPS://example.com"},
	}

	for _, tc := range cases {
		got, err := NormalizeURL(tc.in)
		if err != nil {
			t.Fatalf("NormalizeURL(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeURL_RejectsMalformedInput(t *testing.T) {
	for _, in := range []string{"", "   ", "https://", "http://", "ht tp://bad host"} {
		_, err := NormalizeURL(in)
		if err == nil {
			t.Fatalf("NormalizeURL(%q): expected error", in)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("NormalizeURL(%q): expected *ValidationError, got %T", in, err)
		}
	}
}
