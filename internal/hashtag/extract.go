package hashtag

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxTagLen bounds normalized tag length in runes.
const MaxTagLen = 64

var tagPattern = regexp.MustCompile(`#([0-9A-Za-z_\p{Hangul}]+)`)

// Normalize applies NFKC, lowercases, and caps the tag at MaxTagLen runes.
func Normalize(raw string) string {
	s := strings.TrimSpace(norm.NFKC.String(raw))
	s = strings.ToLower(s)
	if r := []rune(s); len(r) > MaxTagLen {
		s = string(r[:MaxTagLen])
	}
	return s
}

// Extract returns the normalized hashtags of text, order preserved,
// duplicates removed. A '#' glued to a preceding word character is not a tag
// ("a#b" yields nothing).
func Extract(text string) []string {
	if text == "" {
		return nil
	}
	var (
		out  []string
		seen = map[string]struct{}{}
	)
	for _, loc := range tagPattern.FindAllStringSubmatchIndex(text, -1) {
		if prev, ok := lastRuneBefore(text, loc[0]); ok {
			if prev == '_' || prev == '#' || unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				continue
			}
		}
		tag := Normalize(text[loc[2]:loc[3]])
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func lastRuneBefore(s string, i int) (rune, bool) {
	if i == 0 {
		return 0, false
	}
	r, size := utf8.DecodeLastRuneInString(s[:i])
	if size == 0 {
		return 0, false
	}
	return r, true
}
