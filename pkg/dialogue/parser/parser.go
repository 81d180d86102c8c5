// Package parser extracts the control markers the model multiplexes into its
// text replies. Markers are case-sensitive and must match exactly; anything
// that doesn't match is left in the content untouched so the system degrades
// gracefully when the model ignores its formatting instructions.
package parser

import (
	"regexp"
	"strings"
)

const (
	// AnswerFoundTag prefixes a reply when the user has reached a concrete
	// conclusion on their own.
	AnswerFoundTag = "[ANSWER_FOUND]"

	// VerificationTag appears anywhere in a reply that asks the user to
	// confirm a problem extracted from an attachment.
	VerificationTag = "[VERIFICATION_NEEDED]"

	// TitlePrefix starts the first line of a session-creation reply.
	TitlePrefix = "TITLE:"
)

var titleRe = regexp.MustCompile(`^TITLE:\s*(.+)`)

// TitleResult is the outcome of scanning a creation reply for its title line.
type TitleResult struct {
	Title   string
	Content string
	Found   bool
}

// SplitTitle parses the "TITLE: <text>" first line out of a session-creation
// reply. The title line, any immediately following separator line ("---") and
// surrounding blank lines are stripped from the returned content. When no
// title line is present the content comes back unchanged and Found is false.
func SplitTitle(raw string) TitleResult {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 {
		return TitleResult{Content: raw}
	}

	m := titleRe.FindStringSubmatch(lines[0])
	if m == nil {
		return TitleResult{Content: raw}
	}

	rest := lines[1:]
	for len(rest) > 0 {
		trimmed := strings.TrimSpace(rest[0])
		if trimmed == "" || trimmed == "---" {
			rest = rest[1:]
			continue
		}
		break
	}

	return TitleResult{
		Title:   strings.TrimSpace(m[1]),
		Content: strings.TrimSpace(strings.Join(rest, "\n")),
		Found:   true,
	}
}

// StripAnswerFound reports whether the reply begins with the answer-found tag
// and returns the content with the tag removed. The tag only counts as a
// prefix; an occurrence mid-text is ordinary content.
func StripAnswerFound(raw string) (string, bool) {
	if !strings.HasPrefix(raw, AnswerFoundTag) {
		return raw, false
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, AnswerFoundTag)), true
}

// NeedsVerification reports whether the reply carries the verification tag.
// The tag stays in the content: the presentation layer renders the
// confirm/edit controls off it.
func NeedsVerification(raw string) bool {
	return strings.Contains(raw, VerificationTag)
}
