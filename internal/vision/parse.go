package vision

import (
	"regexp"
	"strings"
)

var (
	commentTag = regexp.MustCompile(`(?is)<comment>(.*?)</comment>`)
	codeFence  = regexp.MustCompile("(?s)```[\\w-]*\\n?(.*?)```")
	strayTag   = regexp.MustCompile(`(?i)</?comment>`)
)

// ParseComments extracts chat comments from a model completion. Tagged
// <comment> blocks win; otherwise every meaningful line is a comment.
func ParseComments(text string) []string {
	out := []string{}
	if text == "" {
		return out
	}

	if matches := commentTag.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		for _, m := range matches {
			if c := strings.TrimSpace(m[1]); c != "" {
				out = append(out, c)
			}
		}
		return out
	}

	clean := strings.TrimSpace(codeFence.ReplaceAllString(text, "$1"))
	clean = strayTag.ReplaceAllString(clean, "")

	for _, line := range strings.Split(clean, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isPreamble(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// isPreamble reports lines models emit before the actual answer.
func isPreamble(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "here are") ||
		strings.HasPrefix(lower, "sure") ||
		strings.HasSuffix(lower, ":")
}
