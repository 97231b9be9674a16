// Package textcodec decodes message payloads into text.
package textcodec

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Decode returns body as text. Valid UTF-8 is returned as is; anything else is
// decoded as ISO-8859-1, which maps every byte, and fellBack is set.
func Decode(body []byte) (text string, fellBack bool) {
	if utf8.Valid(body) {
		return string(body), false
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		// unreachable for ISO-8859-1, every byte has a mapping
		return string(body), true
	}
	return string(decoded), true
}

// Encode returns text as UTF-8 bytes.
func Encode(text string) []byte {
	return []byte(text)
}
