package mail

import "strings"

const snippetLimit = 150

// Snippet collapses whitespace and control characters to single spaces,
// truncates at 150 characters preserving rune boundaries, cuts back to the
// last space before the limit when possible, and appends an ellipsis
// (spec.md §4.2, property 7: result is never more than 153 characters and
// never contains a control character).
func Snippet(text string) string {
	collapsed := collapseWhitespace(text)
	runes := []rune(collapsed)
	if len(runes) <= snippetLimit {
		return collapsed
	}

	cut := snippetLimit
	// Walk back to the last space at or before the limit.
	for i := cut; i > 0; i-- {
		if runes[i-1] == ' ' {
			cut = i - 1
			break
		}
		if i == 1 {
			cut = snippetLimit
		}
	}

	return strings.TrimRight(string(runes[:cut]), " ") + "…"
}

// collapseWhitespace maps every run of whitespace/control characters to a
// single space and trims the result.
func collapseWhitespace(s string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if r < 0x20 || r == 0x7f || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastWasSpace {
				b.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return strings.TrimSpace(b.String())
}
