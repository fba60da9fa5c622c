// Package encoding converts between Go strings and PDF text strings.
//
// PDF text strings (PDF 1.7, Section 7.9.2.2) are either PDFDocEncoded
// bytes or UTF-16BE prefixed with the byte order mark FE FF. Locators
// written into checkpoint objects are file paths, which may contain any
// Unicode character, so they go through EncodeTextString before they are
// written and DecodeTextString after they are parsed.
package encoding

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// utf16BOM is the byte order mark that marks a UTF-16BE text string.
var utf16BOM = []byte{0xFE, 0xFF}

// EncodeTextString returns the bytes to place inside a PDF string literal.
//
// Pure 7-bit ASCII is written as is. Anything else is written as UTF-16BE
// with a leading byte order mark.
func EncodeTextString(s string) ([]byte, error) {
	if isASCII(s) {
		return []byte(s), nil
	}

	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode UTF-16BE text string: %w", err)
	}
	return out, nil
}

// DecodeTextString converts raw string bytes from a parsed PDF string
// object back to a Go string.
//
// Bytes starting with FE FF are decoded as UTF-16BE; everything else is
// treated as Latin-1, which agrees with PDFDocEncoding on the printable
// ASCII range and on most of the upper half.
func DecodeTextString(raw []byte) (string, error) {
	if bytes.HasPrefix(raw, utf16BOM) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("decode UTF-16BE text string: %w", err)
		}
		return string(out), nil
	}

	if isASCII(string(raw)) {
		return string(raw), nil
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode Latin-1 text string: %w", err)
	}
	return string(out), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
