package http

import "strings"

// originPatterns maps allowed_origins to websocket.AcceptOptions. A "*" entry
// or an empty list disables the check.
func originPatterns(allowed []string) (patterns []string, skipVerify bool) {
	if len(allowed) == 0 {
		return nil, true
	}
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return nil, true
		}
		if origin == "" {
			continue
		}
		// OriginPatterns match the host only.
		origin = strings.TrimPrefix(origin, "https://")
		origin = strings.TrimPrefix(origin, "http://")
		patterns = append(patterns, origin)
	}
	return patterns, false
}
