package fonts

import "sort"

// FontSubset records which characters of a font a document uses.
//
// The whole font program is embedded; the subset drives the widths array
// and the ToUnicode CMap so they only cover what the content shows.
type FontSubset struct {
	BaseFont  *TTFFont
	UsedChars map[rune]bool
}

// NewFontSubset returns an empty subset of font.
func NewFontSubset(font *TTFFont) *FontSubset {
	return &FontSubset{
		BaseFont:  font,
		UsedChars: make(map[rune]bool),
	}
}

// UseChar marks ch as used. Characters the font cannot map are recorded
// too; they are skipped when glyphs are written.
func (s *FontSubset) UseChar(ch rune) {
	s.UsedChars[ch] = true
}

// UseString marks every character of text as used.
func (s *FontSubset) UseString(text string) {
	for _, ch := range text {
		s.UseChar(ch)
	}
}

// Chars returns the used characters in code point order.
func (s *FontSubset) Chars() []rune {
	chars := make([]rune, 0, len(s.UsedChars))
	for ch := range s.UsedChars {
		chars = append(chars, ch)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	return chars
}

// Glyphs returns the used characters the font maps, sorted by glyph ID.
func (s *FontSubset) Glyphs() []GlyphMapping {
	mappings := make([]GlyphMapping, 0, len(s.UsedChars))
	for ch := range s.UsedChars {
		gid, ok := s.BaseFont.CharToGlyph[ch]
		if !ok {
			continue
		}
		mappings = append(mappings, GlyphMapping{GlyphID: gid, Char: ch})
	}
	sort.Slice(mappings, func(i, j int) bool {
		if mappings[i].GlyphID != mappings[j].GlyphID {
			return mappings[i].GlyphID < mappings[j].GlyphID
		}
		return mappings[i].Char < mappings[j].Char
	})
	return mappings
}

// MeasureString returns the advance of text at size points. Unmapped
// characters advance by the width of glyph 0.
func (s *FontSubset) MeasureString(text string, size float64) float64 {
	font := s.BaseFont
	if font.UnitsPerEm == 0 {
		return 0
	}
	var units float64
	for _, ch := range text {
		w, ok := font.GlyphWidth(ch)
		if !ok {
			w = font.AdvanceWidth(0)
		}
		units += float64(w)
	}
	return units * size / float64(font.UnitsPerEm)
}

// GlyphMapping pairs a glyph ID with the character it renders.
type GlyphMapping struct {
	GlyphID uint16
	Char    rune
}
