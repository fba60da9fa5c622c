package fonts

import (
	"bytes"
	"fmt"
	"unicode/utf16"
)

// bfcharBatch is the most entries one beginbfchar section may hold.
const bfcharBatch = 100

const cmapPrologue = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
`

const cmapEpilogue = `endcmap
CMapName currentdict /CMap defineresource pop
end
end
`

// GenerateToUnicodeCMap builds the ToUnicode CMap of a subset. Content
// streams show two-byte glyph IDs (Identity-H), so each used glyph maps
// back to its character. Characters outside the BMP are written as
// surrogate pairs.
//
// Reference: PDF 1.7, Section 9.10.3.
func GenerateToUnicodeCMap(subset *FontSubset) []byte {
	var buf bytes.Buffer
	buf.WriteString(cmapPrologue)

	glyphs := subset.Glyphs()
	for len(glyphs) > 0 {
		n := min(len(glyphs), bfcharBatch)
		fmt.Fprintf(&buf, "%d beginbfchar\n", n)
		for _, g := range glyphs[:n] {
			fmt.Fprintf(&buf, "<%04X> <%s>\n", g.GlyphID, utf16Hex(g.Char))
		}
		buf.WriteString("endbfchar\n")
		glyphs = glyphs[n:]
	}

	buf.WriteString(cmapEpilogue)
	return buf.Bytes()
}

func utf16Hex(ch rune) string {
	var s string
	for _, unit := range utf16.Encode([]rune{ch}) {
		s += fmt.Sprintf("%04X", unit)
	}
	return s
}
