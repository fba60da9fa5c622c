// Package fonts parses TrueType fonts far enough to embed and measure them:
// the table directory, head, hhea, hmtx, cmap (format 4), post, OS/2 and
// the PostScript name.
package fonts

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/spf13/afero"
)

// ErrNotTrueType is returned for data that does not start with a TrueType
// sfnt header.
var ErrNotTrueType = errors.New("not a TrueType font")

// sfntVersionTrueType is the sfnt version of fonts with TrueType outlines.
const sfntVersionTrueType = 0x00010000

// TTFFont is a parsed TrueType font.
//
// Metric fields are in font units (see UnitsPerEm) unless noted.
//
// Reference: TrueType specification, Microsoft Typography.
type TTFFont struct {
	FilePath       string
	PostScriptName string

	Tables map[string]*TTFTable

	UnitsPerEm  uint16
	NumHMetrics uint16

	// GlyphWidths maps glyph IDs to advance widths.
	GlyphWidths map[uint16]uint16

	// CharToGlyph maps Unicode code points to glyph IDs.
	CharToGlyph map[rune]uint16

	// CharWidths holds per-character advances taken from a metrics font.
	// When set it wins over GlyphWidths.
	CharWidths  map[rune]uint16
	MetricsPath string

	// FontData is the raw file, embedded as FontFile2.
	FontData []byte

	// head
	FontBBox [4]int16

	// hhea
	Ascender  int16
	Descender int16
	LineGap   int16

	// post
	ItalicAngle        float64
	UnderlinePosition  int16
	UnderlineThickness int16
	IsFixedPitch       bool

	// OS/2
	CapHeight     int16
	XHeight       int16
	WeightClass   uint16
	WidthClass    uint16
	FSType        uint16
	TypoAscender  int16
	TypoDescender int16

	// Derived.
	StemV int16
	Flags uint32
}

// TTFTable is one entry of the table directory with its bytes.
type TTFTable struct {
	Tag      string
	Checksum uint32
	Offset   uint32
	Length   uint32
	Data     []byte
}

// LoadTTF reads and parses the font at path on fs.
func LoadTTF(fs afero.Fs, path string) (*TTFFont, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}

	font, err := ParseTTF(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	font.FilePath = path
	return font, nil
}

// ParseTTF parses a TrueType font held in memory.
func ParseTTF(data []byte) (*TTFFont, error) {
	font := &TTFFont{
		Tables:      make(map[string]*TTFTable),
		GlyphWidths: make(map[uint16]uint16),
		CharToGlyph: make(map[rune]uint16),
		FontData:    data,
	}

	if err := font.parseDirectory(data); err != nil {
		return nil, fmt.Errorf("font directory: %w", err)
	}
	if err := font.parseRequiredTables(); err != nil {
		return nil, err
	}
	return font, nil
}

// parseDirectory reads the offset table and the 16-byte table records:
//
//	sfntVersion(4) numTables(2) searchRange(2) entrySelector(2) rangeShift(2)
//	{tag(4) checksum(4) offset(4) length(4)} * numTables
func (f *TTFFont) parseDirectory(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("%w: %d bytes", ErrNotTrueType, len(data))
	}
	if v := binary.BigEndian.Uint32(data); v != sfntVersionTrueType {
		return fmt.Errorf("%w: sfnt version 0x%08X", ErrNotTrueType, v)
	}

	numTables := int(binary.BigEndian.Uint16(data[4:]))
	if len(data) < 12+16*numTables {
		return fmt.Errorf("table directory truncated (%d tables)", numTables)
	}

	for i := 0; i < numTables; i++ {
		rec := data[12+16*i:]
		table := &TTFTable{
			Tag:      string(rec[0:4]),
			Checksum: binary.BigEndian.Uint32(rec[4:]),
			Offset:   binary.BigEndian.Uint32(rec[8:]),
			Length:   binary.BigEndian.Uint32(rec[12:]),
		}
		end := uint64(table.Offset) + uint64(table.Length)
		if end > uint64(len(data)) {
			return fmt.Errorf("table %q out of bounds", table.Tag)
		}
		table.Data = data[table.Offset:end]
		f.Tables[table.Tag] = table
	}
	return nil
}

// GlyphWidth returns the advance width of the glyph for ch in font units.
func (f *TTFFont) GlyphWidth(ch rune) (uint16, bool) {
	gid, ok := f.CharToGlyph[ch]
	if !ok {
		return 0, false
	}
	if w, ok := f.CharWidths[ch]; ok {
		return w, true
	}
	return f.AdvanceWidth(gid), true
}

// AdvanceWidth returns the advance width of glyph gid. Glyphs past the last
// long metric share its advance.
func (f *TTFFont) AdvanceWidth(gid uint16) uint16 {
	if w, ok := f.GlyphWidths[gid]; ok {
		return w
	}
	if f.NumHMetrics > 0 && gid >= f.NumHMetrics {
		return f.GlyphWidths[f.NumHMetrics-1]
	}
	return 0
}

// HasChar reports whether the cmap maps ch.
func (f *TTFFont) HasChar(ch rune) bool {
	_, ok := f.CharToGlyph[ch]
	return ok
}
