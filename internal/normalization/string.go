package normalization

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func ParseInputStringPtr(input *string) *string {
	if input == nil {
		return nil
	}
	normalized := ParseInputString(*input)
	return &normalized
}

// CommandTemplate reduces a free-text command to a stable signature: NFC,
// lower case, punctuation and symbols dropped, every digit replaced by '#',
// whitespace collapsed, then cut to the first maxWords words (0 keeps all).
func CommandTemplate(input string, maxWords int) string {
	s := norm.NFC.String(input)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune('#')
		case unicode.IsLetter(r), unicode.Is(unicode.Mn, r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(' ')
		}
	}
	words := strings.Fields(b.String())
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}

// SnakeKey lower-cases and joins words with underscores. Non letter/digit
// runes act as separators.
func SnakeKey(input string) string {
	s := norm.NFC.String(strings.TrimSpace(input))
	var parts []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return strings.Join(parts, "_")
}
