package pipeline

import (
	"regexp"
	"strings"
)

// ModerationFilter rejects content containing a denylisted word. Matching is
// whole-word and case-insensitive, so "class" passes while "Ass" does not.
// The filter runs before any external call.
type ModerationFilter struct {
	pattern *regexp.Regexp
}

func NewModerationFilter(denylist []string) *ModerationFilter {
	if len(denylist) == 0 {
		return &ModerationFilter{pattern: nil}
	}
	quoted := make([]string, 0, len(denylist))
	for _, w := range denylist {
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(w)))
	}
	pattern := regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	return &ModerationFilter{pattern: pattern}
}

// Match returns the offending word, or "" when the content is clean.
func (f *ModerationFilter) Match(content string) string {
	if f.pattern == nil {
		return ""
	}
	return f.pattern.FindString(content)
}
