package httpx

import (
	"path"
	"strings"
)

// PathMatcher matches request paths against ant-style patterns:
//   - /api/* matches /api/foo but not /api/foo/bar
//   - /api/** matches /api, /api/foo and /api/foo/bar
//   - /api/*/users matches /api/v1/users
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a matcher; blank patterns are ignored.
func NewPathMatcher(patterns []string) *PathMatcher {
	pm := &PathMatcher{}
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			pm.patterns = append(pm.patterns, normalizePath(p))
		}
	}
	return pm
}

// Empty reports whether the matcher has no patterns.
func (pm *PathMatcher) Empty() bool { return pm == nil || len(pm.patterns) == 0 }

// Match reports whether requestPath matches any pattern. An empty matcher matches nothing.
func (pm *PathMatcher) Match(requestPath string) bool {
	if pm.Empty() {
		return false
	}
	requestPath = normalizePath(requestPath)
	for _, pattern := range pm.patterns {
		if matchPattern(strings.Split(pattern, "/"), strings.Split(requestPath, "/")) {
			return true
		}
	}
	return false
}

// normalizePath ensures a leading slash and no trailing slash.
func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func matchPattern(pattern, segments []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		if head == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(segments); i++ {
				if matchPattern(rest, segments[i:]) {
					return true
				}
			}
			return false
		}
		if len(segments) == 0 {
			return false
		}
		if ok, _ := path.Match(head, segments[0]); !ok {
			return false
		}
		pattern, segments = pattern[1:], segments[1:]
	}
	return len(segments) == 0
}
