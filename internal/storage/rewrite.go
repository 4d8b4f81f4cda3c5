package storage

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

var imgSrcPattern = regexp.MustCompile(`(?i)(<img\b[^>]*?\bsrc\s*=\s*)(["'])([^"']+)(["'])`)

// RewriteResult counts what [Relocator.RewriteContent] did to one HTML document.
type RewriteResult struct {
	Found     int // images pointing at a legacy host
	Relocated int
	Failed    int
}

// Changed reports whether any src attribute was replaced.
func (r RewriteResult) Changed() bool {
	return r.Relocated > 0
}

// LegacyHostMatcher builds a predicate matching URLs on any of hosts, ignoring case and "www.".
func LegacyHostMatcher(hosts []string) func(string) bool {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		set[bareHost(h)] = struct{}{}
	}
	return func(rawURL string) bool {
		u, err := url.Parse(rawURL)
		if err != nil || u.Host == "" {
			return false
		}
		_, ok := set[bareHost(u.Hostname())]
		return ok
	}
}

func bareHost(h string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "www.")
}

// RewriteContent relocates every <img src> in html whose URL satisfies isLegacy and swaps in the
// relocated URL. Images that fail to relocate keep their original src.
func (r *Relocator) RewriteContent(ctx context.Context, html, entityType, slug string, isLegacy func(string) bool) (string, RewriteResult, error) {
	var result RewriteResult
	if html == "" {
		return html, result, nil
	}

	matches := imgSrcPattern.FindAllStringSubmatchIndex(html, -1)
	if len(matches) == 0 {
		return html, result, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		srcStart, srcEnd := m[6], m[7]
		src := html[srcStart:srcEnd]
		if !isLegacy(src) {
			continue
		}
		result.Found++

		asset, err := r.RelocateContent(ctx, src, entityType, slug)
		if err != nil {
			return html, result, err
		}
		if !asset.Relocated {
			if asset.Failed() {
				result.Failed++
			}
			continue
		}

		result.Relocated++
		b.WriteString(html[last:srcStart])
		b.WriteString(asset.URL)
		last = srcEnd
	}

	if result.Relocated == 0 {
		return html, result, nil
	}
	b.WriteString(html[last:])
	return b.String(), result, nil
}

// LegacyImages lists the <img src> URLs in html that satisfy isLegacy, in document order.
func LegacyImages(html string, isLegacy func(string) bool) []string {
	var urls []string
	for _, m := range imgSrcPattern.FindAllStringSubmatch(html, -1) {
		if isLegacy(m[3]) {
			urls = append(urls, m[3])
		}
	}
	return urls
}
