package translator

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Multi-letter romanizations, applied in order before single letters.
var pairs = []struct{ lat, cyr string }{
	{"shch", "щ"},
	{"yo", "ё"},
	{"yu", "ю"},
	{"ya", "я"},
	{"zh", "ж"},
	{"ch", "ч"},
	{"sh", "ш"},
	{"ts", "ц"},
	{"kh", "х"},
	{"yi", "ы"},
	{"ye", "е"},
	{"e", "е"},
	{"y", "й"},
}

var single = map[rune]string{
	'a': "а", 'b': "б", 'v': "в", 'g': "г", 'd': "д", 'e': "е", 'z': "з",
	'i': "и", 'j': "й", 'k': "к", 'l': "л", 'm': "м", 'n': "н", 'o': "о",
	'p': "п", 'r': "р", 's': "с", 't': "т", 'u': "у", 'f': "ф", 'h': "х",
	'c': "к", 'q': "к", 'w': "в", 'x': "кс",
}

// ToCyrillic converts Latin-script operator input to Cyrillic.
//
// The whole string is lower-cased before substitution; only the first
// character regains its capital. This holds for Cyrillic input too, so the
// result does not depend on whether the text contained Latin letters.
func ToCyrillic(text string) string {
	lower := strings.ToLower(text)
	for _, p := range pairs {
		lower = strings.ReplaceAll(lower, p.lat, p.cyr)
	}

	var sb strings.Builder
	sb.Grow(len(lower))
	for _, r := range lower {
		if cyr, ok := single[r]; ok {
			sb.WriteString(cyr)
			continue
		}
		sb.WriteRune(r)
	}
	result := sb.String()

	first, _ := utf8.DecodeRuneInString(text)
	if unicode.IsUpper(first) {
		r, size := utf8.DecodeRuneInString(result)
		result = string(unicode.ToUpper(r)) + result[size:]
	}
	return result
}
