package helpers

import "strings"

// StripCodeFence unwraps model output wrapped in a Markdown code fence
// (``` or ~~~, with an optional language tag such as ```html) and trims
// surrounding whitespace. Unfenced input is returned trimmed. A fenced block
// with no closing fence is unwrapped to the end of the input rather than
// dropped.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(trimBOM(s))
	fence := ""
	switch {
	case strings.HasPrefix(s, "```"):
		fence = "```"
	case strings.HasPrefix(s, "~~~"):
		fence = "~~~"
	default:
		return s
	}

	rest := s[len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		// Opening fence with no content line.
		return ""
	}
	rest = rest[nl+1:]
	if end := strings.LastIndex(rest, fence); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
