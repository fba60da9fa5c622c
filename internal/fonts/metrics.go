package fonts

import (
	"fmt"
	"math"
)

// ApplyMetrics replaces the horizontal advances and vertical metrics of f
// with those of m, scaled to f's units per em. Characters m does not map
// keep their own advance. Glyph outlines stay with f.
func (f *TTFFont) ApplyMetrics(m *TTFFont) error {
	if m == nil {
		return fmt.Errorf("metrics font is nil")
	}
	if m.UnitsPerEm == 0 || f.UnitsPerEm == 0 {
		return fmt.Errorf("metrics font %s: zero units per em", m.FilePath)
	}

	scale := float64(f.UnitsPerEm) / float64(m.UnitsPerEm)
	scaled := func(v int16) int16 { return int16(math.Round(float64(v) * scale)) }

	f.CharWidths = make(map[rune]uint16, len(f.CharToGlyph))
	for ch := range f.CharToGlyph {
		if w, ok := m.GlyphWidth(ch); ok {
			f.CharWidths[ch] = uint16(math.Round(float64(w) * scale))
		}
	}

	f.Ascender = scaled(m.Ascender)
	f.Descender = scaled(m.Descender)
	f.LineGap = scaled(m.LineGap)
	if m.CapHeight != 0 {
		f.CapHeight = scaled(m.CapHeight)
	}
	if m.XHeight != 0 {
		f.XHeight = scaled(m.XHeight)
	}
	f.MetricsPath = m.FilePath
	return nil
}
