package fonts

import (
	"path/filepath"
	"strings"
)

// pdfUnitsPerEm is the glyph space used by PDF font dictionaries.
const pdfUnitsPerEm = 1000.0

// FontDescriptor holds the FontDescriptor entries of an embedded font,
// already scaled to PDF glyph space.
//
// Reference: PDF 1.7, Section 9.8.
type FontDescriptor struct {
	FontName    string
	Flags       uint32
	FontBBox    [4]int
	ItalicAngle float64
	Ascent      int
	Descent     int
	CapHeight   int
	XHeight     int
	StemV       int
	Leading     int
}

// GenerateFontDescriptor derives the descriptor of font. Fonts without a
// PostScript name are named after their file.
func GenerateFontDescriptor(font *TTFFont) *FontDescriptor {
	if font == nil {
		return nil
	}

	fd := &FontDescriptor{
		FontName:    FontName(font),
		Flags:       font.Flags,
		ItalicAngle: font.ItalicAngle,
		Ascent:      font.ToPDFUnits(int(font.Ascender)),
		Descent:     font.ToPDFUnits(int(font.Descender)),
		CapHeight:   font.ToPDFUnits(int(font.CapHeight)),
		XHeight:     font.ToPDFUnits(int(font.XHeight)),
		StemV:       int(font.StemV),
		Leading:     font.ToPDFUnits(int(font.LineGap)),
	}
	for i, v := range font.FontBBox {
		fd.FontBBox[i] = font.ToPDFUnits(int(v))
	}
	return fd
}

// FontName returns the PostScript name of font, or a name derived from its
// file path with spaces removed.
func FontName(font *TTFFont) string {
	if font.PostScriptName != "" {
		return font.PostScriptName
	}
	base := filepath.Base(font.FilePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(name, " ", "")
}

// ToPDFUnits scales a value in font units to 1000 units per em.
func (f *TTFFont) ToPDFUnits(v int) int {
	if f.UnitsPerEm == 0 {
		return 0
	}
	return int(float64(v) * pdfUnitsPerEm / float64(f.UnitsPerEm))
}
