package shopify

import "strings"

// ParseLinkHeader parses a Link header of comma-separated `<url>; rel="value"`
// segments into a rel -> url map. Malformed segments are skipped.
func ParseLinkHeader(header string) map[string]string {
	links := make(map[string]string)
	for _, segment := range strings.Split(header, ",") {
		parts := strings.Split(segment, ";")
		if len(parts) < 2 {
			continue
		}
		target := strings.TrimSpace(parts[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		target = strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
		for _, param := range parts[1:] {
			name, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(name), "rel") {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(value), `"`)) {
				if _, seen := links[rel]; !seen {
					links[rel] = target
				}
			}
		}
	}
	return links
}

// NextPageURL returns the rel="next" target of a Link header, or "" when absent
func NextPageURL(header string) string {
	if header == "" {
		return ""
	}
	return ParseLinkHeader(header)["next"]
}
