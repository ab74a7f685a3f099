package core

import (
	"regexp"
	"strings"
)

const (
	// urlContextWindow is how many characters of preceding text are
	// inspected for brand impersonation around each URL.
	urlContextWindow = 50

	// urlScoreCap bounds the sub-score of a single URL. The aggregate
	// over all URLs is deliberately uncapped.
	urlScoreCap = 10.0

	// urlMarkerLen bounds the URL prefix embedded in found_patterns.
	urlMarkerLen = 40
)

var ipv4HostPattern = regexp.MustCompile(`^\d{1,3}(?:\.\d{1,3}){3}$`)

// inspectURLs extracts every URL with its preceding context, scores each
// one and returns the aggregate score plus a marker per suspicious URL.
func (g *SecurityGuard) inspectURLs(text string) (float64, []string) {
	var total float64
	var markers []string

	for _, loc := range g.policy.URLPattern.FindAllStringIndex(text, -1) {
		url := text[loc[0]:loc[1]]
		ctxStart := loc[0] - urlContextWindow
		if ctxStart < 0 {
			ctxStart = 0
		}
		sub := g.scoreURL(url, text[ctxStart:loc[0]])
		if sub <= 0 {
			continue
		}
		total += sub
		markers = append(markers, "suspicious_url:"+markerPrefix(url))
	}

	return total, markers
}

// scoreURL computes the 0..10 suspiciousness sub-score of one URL given the
// text immediately preceding it.
func (g *SecurityGuard) scoreURL(url, context string) float64 {
	host := urlHost(url)
	var sub float64

	for _, shortener := range g.policy.ShortenerDomains {
		if host == shortener || strings.HasSuffix(host, "."+shortener) {
			sub += 3
			break
		}
	}

	for _, keyword := range g.policy.HostKeywords {
		if strings.Contains(host, keyword) {
			sub += 6
			break
		}
	}

	if ipv4HostPattern.MatchString(host) {
		sub += 4
	}

	// A brand mentioned right before the link but absent from the link's
	// own host reads as display-text impersonation.
	for _, brand := range g.policy.BrandNames {
		if strings.Contains(context, brand) && !strings.Contains(host, brand) {
			sub += 5
			break
		}
	}

	if sub > urlScoreCap {
		sub = urlScoreCap
	}
	return sub
}

// urlHost extracts the lowercased host portion of a URL-looking substring.
func urlHost(raw string) string {
	host := strings.ToLower(raw)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

func markerPrefix(url string) string {
	if len(url) > urlMarkerLen {
		return url[:urlMarkerLen]
	}
	return url
}
