// ABOUTME: Base64 text layer for stored notes
// ABOUTME: Encodes with standard padding and decodes with browser atob rules
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeText encodes raw bytes as standard padded base64
func EncodeText(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeText reverses EncodeText. It accepts what a browser's atob accepts:
// ASCII whitespace is ignored and trailing padding is optional, so notes
// decode identically here and in the exported player.
func DecodeText(encoded string) ([]byte, error) {
	s := stripASCIIWhitespace(encoded)

	if len(s)%4 == 0 {
		s = strings.TrimSuffix(s, "=")
		s = strings.TrimSuffix(s, "=")
	}
	if len(s)%4 == 1 {
		return nil, fmt.Errorf("%w: invalid length %d", ErrTextCodec, len(s))
	}

	raw, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTextCodec, err)
	}
	return raw, nil
}

func stripASCIIWhitespace(s string) string {
	if !strings.ContainsAny(s, " \t\n\f\r") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
			return -1
		}
		return r
	}, s)
}
