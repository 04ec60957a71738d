// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package p21

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// codePages maps the \P?\ directive letter to its ISO 8859 part.
var codePages = map[byte]*charmap.Charmap{
	'A': charmap.ISO8859_1,
	'B': charmap.ISO8859_2,
	'C': charmap.ISO8859_3,
	'D': charmap.ISO8859_4,
	'E': charmap.ISO8859_5,
	'F': charmap.ISO8859_6,
	'G': charmap.ISO8859_7,
	'H': charmap.ISO8859_8,
	'I': charmap.ISO8859_9,
}

var (
	utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	utf32BE = utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)
)

// decodeString expands the control directives of a Part 21 string:
// \\ (backslash), \S\c (upper half of the active code page), \P?\ (select
// code page), \X\hh (ISO 8859-1 byte), \X2\...\X0\ (UTF-16) and
// \X4\...\X0\ (UTF-32). Bytes outside directives are taken as UTF-8, which
// is what most modern writers emit.
func decodeString(raw string) (string, error) {
	if !strings.Contains(raw, `\`) {
		return raw, nil
	}

	page := charmap.ISO8859_1
	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		rest := raw[i:]
		switch {
		case strings.HasPrefix(rest, `\\`):
			b.WriteByte('\\')
			i += 2
		case strings.HasPrefix(rest, `\S\`) && len(rest) >= 4:
			s, err := decodeBytes(page, []byte{rest[3] | 0x80})
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			i += 4
		case strings.HasPrefix(rest, `\P`) && len(rest) >= 4 && rest[3] == '\\':
			cp, ok := codePages[rest[2]]
			if !ok {
				return "", fmt.Errorf("unknown code page directive %q", rest[:4])
			}
			page = cp
			i += 4
		case strings.HasPrefix(rest, `\X2\`), strings.HasPrefix(rest, `\X4\`):
			width := 4
			enc := encoding.Encoding(utf16BE)
			if rest[2] == '4' {
				width = 8
				enc = utf32BE
			}
			end := strings.Index(rest[4:], `\X0\`)
			if end < 0 {
				return "", fmt.Errorf("unterminated %s directive", rest[:4])
			}
			digits := rest[4 : 4+end]
			if len(digits)%width != 0 {
				return "", fmt.Errorf("%s directive has %d hex digits, want a multiple of %d", rest[:4], len(digits), width)
			}
			data, err := hex.DecodeString(digits)
			if err != nil {
				return "", fmt.Errorf("%s directive: %w", rest[:4], err)
			}
			s, err := decodeBytes(enc, data)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			i += 4 + end + 4
		case strings.HasPrefix(rest, `\X\`) && len(rest) >= 5:
			v, err := hex.DecodeString(rest[3:5])
			if err != nil {
				return "", fmt.Errorf(`\X\ directive: %w`, err)
			}
			s, err := decodeBytes(charmap.ISO8859_1, v)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			i += 5
		default:
			// A lone backslash is not a directive; keep it.
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

func decodeBytes(enc encoding.Encoding, raw []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding string directive: %w", err)
	}
	return string(out), nil
}
