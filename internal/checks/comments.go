package checks

import "strings"

const (
	commentOpen  = "<!--"
	commentClose = "-->"
)

// StripComments removes every <!-- ... --> span in a single pass.
// A comment ends at the first "-->" after its opener, so nested comments
// close early. An opener with no terminator is not a comment and is kept.
func StripComments(src string) string {
	if !strings.Contains(src, commentOpen) {
		return src
	}

	var sb strings.Builder
	sb.Grow(len(src))
	rest := src
	for {
		start := strings.Index(rest, commentOpen)
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:start])

		body := rest[start+len(commentOpen):]
		end := strings.Index(body, commentClose)
		if end < 0 {
			sb.WriteString(rest[start:])
			break
		}
		rest = body[end+len(commentClose):]
	}
	return sb.String()
}
