package wordpress

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

var namedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": `"`,
	"apos": "'",
}

// DecodeEntities decodes numeric character references (&#NNN; and &#xHH;) and the five
// XML named entities in a rendered WordPress title. Any other entity, such as &nbsp;,
// is left as-is, as is any reference to an invalid code point.
//
// Each reference is decoded exactly once, so "&amp;amp;" becomes "&amp;".
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}

		end := strings.IndexByte(s[i:], ';')
		if end < 2 {
			b.WriteByte('&')
			i++
			continue
		}

		body := s[i+1 : i+end]
		if decoded, ok := decodeReference(body); ok {
			b.WriteString(decoded)
			i += end + 1
			continue
		}

		b.WriteByte('&')
		i++
	}

	return b.String()
}

func decodeReference(body string) (string, bool) {
	if v, ok := namedEntities[body]; ok {
		return v, true
	}

	if len(body) < 2 || body[0] != '#' {
		return "", false
	}

	digits, base := body[1:], 10
	if digits[0] == 'x' || digits[0] == 'X' {
		digits, base = digits[1:], 16
	}
	if digits == "" {
		return "", false
	}

	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return "", false
	}

	r := rune(n)
	if r == 0 || !utf8.ValidRune(r) {
		return "", false
	}

	return string(r), true
}
