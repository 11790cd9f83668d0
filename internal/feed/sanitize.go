package feed

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxDescriptionLen bounds sanitized text; longer inputs are truncated
// to 4997 runes plus an ellipsis marker, exactly 5000 runes total.
const MaxDescriptionLen = 5000

const ellipsis = "..."

var (
	markupRe = regexp.MustCompile(`<[^>]*>`)
	urlRe    = regexp.MustCompile(`(?i)(?:https?|ftp)://\S+`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// isEmojiRune reports whether r falls in one of the emoji blocks the
// platforms reject in feed text, or is a variation selector / joiner.
func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F600 && r <= 0x1F64F: // emoticons
		return true
	case r >= 0x1F300 && r <= 0x1F5FF: // symbols and pictographs
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // transport and map
		return true
	case r >= 0x2600 && r <= 0x26FF: // miscellaneous symbols
		return true
	case r >= 0x2700 && r <= 0x27BF: // dingbats
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // supplemental symbols
		return true
	case r >= 0x1FA70 && r <= 0x1FAFF: // symbols extended-A
		return true
	case r == 0x200D || r == 0x2388: // zero-width joiner, helm symbol
		return true
	}
	return false
}

// Sanitize cleans free text for inclusion in a feed field: markup tags
// and absolute URLs are stripped, emoji removed, whitespace collapsed,
// and the result bounded at MaxDescriptionLen runes. Empty input yields
// an empty string; Sanitize never fails.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	cleaned := markupRe.ReplaceAllString(text, " ")
	cleaned = urlRe.ReplaceAllString(cleaned, "")
	cleaned = strings.Map(func(r rune) rune {
		if isEmojiRune(r) {
			return -1
		}
		return r
	}, cleaned)
	cleaned = strings.TrimSpace(spacesRe.ReplaceAllString(cleaned, " "))

	runes := []rune(cleaned)
	if len(runes) > MaxDescriptionLen {
		cleaned = string(runes[:MaxDescriptionLen-len(ellipsis)]) + ellipsis
	}
	return cleaned
}

// TitleCase lower-cases the string and upper-cases the first rune of
// every whitespace-delimited run. Used for the title field only.
func TitleCase(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			startOfWord = true
			b.WriteRune(r)
			continue
		}
		if startOfWord {
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
