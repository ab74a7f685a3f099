package core

import (
	"strings"
	"testing"
)

func TestScoreURL(t *testing.T) {
	guard := newTestGuard(nil)

	tests := []struct {
		name    string
		url     string
		context string
		want    float64
	}{
		{"plain domain", "http://example.com/page", "see ", 0},
		{"shortener", "http://bit.ly/abc", "see ", 3},
		{"shortener subdomain", "https://go.bit.ly/abc", "see ", 3},
		{"suspicious host keyword", "http://fake-login.example.net", "see ", 6},
		{"raw ipv4", "http://192.168.1.10/verify", "see ", 4},
		{"brand impersonation", "http://example.net/x", "your paypal invoice: ", 5},
		{"brand in own host", "http://paypal.com/x", "your paypal invoice: ", 0},
		{"stacked signals capped at 10", "http://virus.bit.ly/x", "your paypal account ", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guard.scoreURL(tt.url, tt.context)
			if got != tt.want {
				t.Errorf("scoreURL(%q) = %.1f, want %.1f", tt.url, got, tt.want)
			}
		})
	}
}

func TestInspectURLsAggregatesWithoutCap(t *testing.T) {
	guard := newTestGuard(nil)

	// Two shortener links at 3 each plus one IP link at 4.
	text := strings.ToLower("first http://bit.ly/a then http://tinyurl.com/b and http://10.0.0.1/c")
	total, markers := guard.inspectURLs(text)

	if total != 10 {
		t.Errorf("expected aggregate 10, got %.1f", total)
	}
	if len(markers) != 3 {
		t.Fatalf("expected 3 markers, got %v", markers)
	}
	for _, marker := range markers {
		if !strings.HasPrefix(marker, "suspicious_url:") {
			t.Errorf("unexpected marker %q", marker)
		}
	}
}

func TestInspectURLsIgnoresCleanLinks(t *testing.T) {
	guard := newTestGuard(nil)

	total, markers := guard.inspectURLs("docs at https://example.com/manual")
	if total != 0 || len(markers) != 0 {
		t.Errorf("clean link scored %.1f with markers %v", total, markers)
	}
}

func TestURLHost(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"http://Example.COM/path?q=1", "example.com"},
		{"https://example.com:8443/x", "example.com"},
		{"www.example.com/x", "www.example.com"},
		{"http://192.168.1.1/login", "192.168.1.1"},
	}

	for _, tt := range tests {
		if got := urlHost(tt.raw); got != tt.want {
			t.Errorf("urlHost(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestMarkerPrefixBounded(t *testing.T) {
	long := "http://example.com/" + strings.Repeat("a", 100)
	if got := markerPrefix(long); len(got) != urlMarkerLen {
		t.Errorf("expected %d-char prefix, got %d", urlMarkerLen, len(got))
	}
}
