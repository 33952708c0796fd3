package post

import (
	"strings"
	"unicode"
)

// Slugify derives a URL fragment from a title: lowercase, characters other
// than ASCII word characters, whitespace and hyphens dropped, runs of
// whitespace and hyphens collapsed into a single hyphen.
func Slugify(title string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsSpace(r) || r == '-':
			pendingHyphen = true
		case isWordRune(r):
			if pendingHyphen {
				b.WriteByte('-')
				pendingHyphen = false
			}
			b.WriteRune(r)
		}
	}
	if pendingHyphen {
		b.WriteByte('-')
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}
