// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// pdfDocEncoding maps the PDFDocEncoding code points that differ from
// ISO-8859-1 (PDF 32000-1:2008, Annex D.2).
var pdfDocEncoding = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
	0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
	0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
	0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0xA0: '€',
}

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// decodeTextString decodes a PDF text string: UTF-16 or UTF-8 when a byte
// order mark is present, PDFDocEncoding otherwise.
func decodeTextString(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, bomUTF16BE):
		if s, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw); err == nil {
			return string(s)
		}
	case bytes.HasPrefix(raw, bomUTF16LE):
		if s, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw); err == nil {
			return string(s)
		}
	case bytes.HasPrefix(raw, bomUTF8):
		if rest := raw[len(bomUTF8):]; utf8.Valid(rest) {
			return string(rest)
		}
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if r, ok := pdfDocEncoding[c]; ok {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(rune(c))
	}
	return b.String()
}

// cleanTitle decodes an outline title and trims surrounding whitespace and
// NUL padding some producers leave behind.
func cleanTitle(raw []byte) string {
	return strings.Trim(decodeTextString(raw), " \t\r\n\x00")
}
