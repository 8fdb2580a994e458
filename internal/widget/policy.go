package widget

import (
	"regexp"
	"strings"

	"github.com/xelochat/widget-engine/internal/domain"
)

// PageAllowed decides whether the widget may stay mounted on the page
// at path. ALL or an empty pattern list always shows; INCLUDE shows
// only on matching pages; EXCLUDE hides on matching pages. The check
// runs once, right after profile load, and a negative decision unmounts
// the widget entirely.
func PageAllowed(mode domain.PageDisplayMode, patterns []string, path string) bool {
	if mode == domain.DisplayAll || mode == "" || len(patterns) == 0 {
		return true
	}

	matched := false
	for _, p := range patterns {
		if matchPagePattern(p, path) {
			matched = true
			break
		}
	}

	switch mode {
	case domain.DisplayInclude:
		return matched
	case domain.DisplayExclude:
		return !matched
	default:
		return true
	}
}

// matchPagePattern matches one pattern against a path. A literal
// pattern matches the exact path or any sub-path beneath it; a pattern
// containing * becomes an anchored wildcard match.
func matchPagePattern(pattern, path string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	if !strings.HasPrefix(pattern, "/") {
		pattern = "/" + pattern
	}
	if pattern != "/" {
		pattern = strings.TrimRight(pattern, "/")
	}

	if strings.Contains(pattern, "*") {
		parts := strings.Split(pattern, "*")
		for i := range parts {
			parts[i] = regexp.QuoteMeta(parts[i])
		}
		re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
		if err != nil {
			return false
		}
		return re.MatchString(path)
	}

	return path == pattern || strings.HasPrefix(path, pattern+"/")
}
