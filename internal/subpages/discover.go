// Package subpages turns the internal links of a generated page into
// standalone subpage projects.
package subpages

import (
	"path"
	"regexp"
	"strings"
)

var anchorHref = regexp.MustCompile(`(?i)<a[^>]+href=["']([^"']+)["']`)

var excludedPrefixes = []string{"http://", "https://", "//", "mailto:", "tel:", "javascript:", "#"}

// DiscoverLinks scans markup for anchor hrefs and returns the distinct
// internal routes in order of first appearance.
func DiscoverLinks(html string) []string {
	seen := make(map[string]struct{})
	var routes []string
	for _, m := range anchorHref.FindAllStringSubmatch(html, -1) {
		route, ok := NormalizeRoute(m[1])
		if !ok {
			continue
		}
		if _, dup := seen[route]; dup {
			continue
		}
		seen[route] = struct{}{}
		routes = append(routes, route)
	}
	return routes
}

// NormalizeRoute maps an href to a rooted route with query and fragment
// removed. ok is false for absolute URLs, non-navigational schemes,
// fragment-only links and the site root.
func NormalizeRoute(href string) (route string, ok bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(lower, p) {
			return "", false
		}
	}

	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return "", false
	}

	route = path.Clean("/" + href)
	if route == "/" {
		return "", false
	}
	return route, true
}

// Plan decides which routes to materialize: the discovered routes, or
// fallbackRoutes when nothing was discovered, minus routes that already exist.
func Plan(discovered, fallbackRoutes, existing []string) (routes []string, usedFallback bool) {
	candidates := discovered
	if len(candidates) == 0 && len(fallbackRoutes) > 0 {
		candidates = fallbackRoutes
		usedFallback = true
	}

	have := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		have[r] = struct{}{}
	}
	for _, r := range candidates {
		if _, ok := have[r]; ok {
			continue
		}
		have[r] = struct{}{}
		routes = append(routes, r)
	}
	return routes, usedFallback
}
