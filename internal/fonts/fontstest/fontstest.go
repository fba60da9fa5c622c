// Package fontstest synthesizes minimal TrueType fonts for tests.
//
// The fonts carry just the tables the fonts package reads: cmap (one
// format 4 segment plus the terminator), head, hhea, hmtx and optionally
// name. Glyph IDs are assigned consecutively from FirstChar, starting at 1.
package fontstest

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"github.com/spf13/afero"
)

// Options describes a synthetic font. Zero fields take the defaults of
// Default.
type Options struct {
	PostScriptName string
	UnitsPerEm     uint16
	Advance        uint16
	Widths         map[rune]uint16
	Ascender       int16
	Descender      int16
	LineGap        int16
	FirstChar      rune
	LastChar       rune
	BBox           [4]int16
}

// Default returns options for a 1000 units-per-em font covering printable
// ASCII with a 500 unit advance.
func Default(name string) Options {
	return Options{
		PostScriptName: name,
		UnitsPerEm:     1000,
		Advance:        500,
		Ascender:       800,
		Descender:      -200,
		FirstChar:      32,
		LastChar:       126,
		BBox:           [4]int16{-50, -200, 950, 800},
	}
}

// GlyphID returns the glyph a font built from o maps ch to.
func (o Options) GlyphID(ch rune) uint16 {
	return uint16(ch - o.FirstChar + 1)
}

type table struct {
	tag  string
	data []byte
}

// Build returns the bytes of a font described by o.
func Build(o Options) []byte {
	d := Default(o.PostScriptName)
	if o.UnitsPerEm == 0 {
		o.UnitsPerEm = d.UnitsPerEm
	}
	if o.Advance == 0 {
		o.Advance = d.Advance
	}
	if o.FirstChar == 0 && o.LastChar == 0 {
		o.FirstChar, o.LastChar = d.FirstChar, d.LastChar
	}

	tables := []table{
		{"cmap", cmapTable(o)},
		{"head", headTable(o)},
		{"hhea", hheaTable(o)},
		{"hmtx", hmtxTable(o)},
	}
	if o.PostScriptName != "" {
		tables = append(tables, table{"name", nameTable(o.PostScriptName)})
	}

	var out bytes.Buffer
	put := func(v any) { _ = binary.Write(&out, binary.BigEndian, v) }

	put(uint32(0x00010000))
	put(uint16(len(tables)))
	put([3]uint16{}) // searchRange, entrySelector, rangeShift

	offset := 12 + 16*len(tables)
	for _, t := range tables {
		out.WriteString(t.tag)
		put(uint32(0)) // checksum
		put(uint32(offset))
		put(uint32(len(t.data)))
		offset += padded(len(t.data))
	}
	for _, t := range tables {
		out.Write(t.data)
		out.Write(make([]byte, padded(len(t.data))-len(t.data)))
	}
	return out.Bytes()
}

// WriteFile builds a font and stores it at path on fs.
func WriteFile(fs afero.Fs, path string, o Options) error {
	return afero.WriteFile(fs, path, Build(o), 0o644)
}

func padded(n int) int { return (n + 3) &^ 3 }

func numGlyphs(o Options) int { return int(o.LastChar-o.FirstChar) + 2 }

func cmapTable(o Options) []byte {
	var b bytes.Buffer
	put := func(v any) { _ = binary.Write(&b, binary.BigEndian, v) }

	put(uint16(0))  // version
	put(uint16(1))  // numTables
	put(uint16(3))  // platform: Windows
	put(uint16(1))  // encoding: Unicode BMP
	put(uint32(12)) // subtable offset

	put(uint16(4))  // format
	put(uint16(32)) // length
	put(uint16(0))  // language
	put(uint16(4))  // segCountX2
	put([3]uint16{4, 1, 0})
	put([]uint16{uint16(o.LastChar), 0xFFFF}) // endCode
	put(uint16(0))                            // reservedPad
	put([]uint16{uint16(o.FirstChar), 0xFFFF}) // startCode
	put([]int16{int16(1 - o.FirstChar), 1})    // idDelta
	put([]uint16{0, 0})                        // idRangeOffset
	return b.Bytes()
}

func headTable(o Options) []byte {
	data := make([]byte, 54)
	binary.BigEndian.PutUint32(data[0:], 0x00010000)
	binary.BigEndian.PutUint32(data[12:], 0x5F0F3CF5)
	binary.BigEndian.PutUint16(data[18:], o.UnitsPerEm)
	for i, v := range o.BBox {
		binary.BigEndian.PutUint16(data[36+2*i:], uint16(v))
	}
	return data
}

func hheaTable(o Options) []byte {
	data := make([]byte, 36)
	binary.BigEndian.PutUint32(data[0:], 0x00010000)
	binary.BigEndian.PutUint16(data[4:], uint16(o.Ascender))
	binary.BigEndian.PutUint16(data[6:], uint16(o.Descender))
	binary.BigEndian.PutUint16(data[8:], uint16(o.LineGap))
	binary.BigEndian.PutUint16(data[10:], o.Advance)
	binary.BigEndian.PutUint16(data[34:], uint16(numGlyphs(o)))
	return data
}

func hmtxTable(o Options) []byte {
	n := numGlyphs(o)
	data := make([]byte, 4*n)
	for gid := 0; gid < n; gid++ {
		advance := o.Advance
		if gid > 0 {
			if w, ok := o.Widths[o.FirstChar+rune(gid-1)]; ok {
				advance = w
			}
		}
		binary.BigEndian.PutUint16(data[4*gid:], advance)
	}
	return data
}

func nameTable(name string) []byte {
	units := utf16.Encode([]rune(name))

	var b bytes.Buffer
	put := func(v any) { _ = binary.Write(&b, binary.BigEndian, v) }
	put(uint16(0))  // format
	put(uint16(1))  // count
	put(uint16(18)) // stringOffset
	put([]uint16{3, 1, 0x409, 6, uint16(2 * len(units)), 0})
	put(units)
	return b.Bytes()
}
