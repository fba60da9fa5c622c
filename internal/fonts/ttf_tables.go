package fonts

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Table layout constants (TrueType specification).
const (
	headMinLength = 44 // through yMax
	hheaMinLength = 36 // through numberOfHMetrics
	postMinLength = 32
	os2MinLength  = 78
	os2V2Length   = 96

	nameIDPostScript = 6

	platformWindows    = 3
	encodingUnicodeBMP = 1
)

// tableData returns the bytes of a table, or an error naming it.
func (f *TTFFont) tableData(tag string, minLen int) ([]byte, error) {
	table, ok := f.Tables[tag]
	if !ok {
		return nil, fmt.Errorf("%s table not found", tag)
	}
	if len(table.Data) < minLen {
		return nil, fmt.Errorf("%s table too short: %d bytes", tag, len(table.Data))
	}
	return table.Data, nil
}

func u16(b []byte, off int) uint16 { return binary.BigEndian.Uint16(b[off:]) }
func i16(b []byte, off int) int16 { return int16(binary.BigEndian.Uint16(b[off:])) }

// parseRequiredTables parses head, hhea, hmtx and cmap, then the optional
// post, OS/2 and name tables on a best-effort basis.
func (f *TTFFont) parseRequiredTables() error {
	steps := []struct {
		name  string
		parse func() error
	}{
		{"head", f.parseHeadTable},
		{"hhea", f.parseHheaTable},
		{"hmtx", f.parseHmtxTable},
		{"cmap", f.parseCmapTable},
	}
	for _, s := range steps {
		if err := s.parse(); err != nil {
			return fmt.Errorf("parse %s table: %w", s.name, err)
		}
	}

	if _, ok := f.Tables["post"]; ok {
		if err := f.parsePostTable(); err != nil {
			f.ItalicAngle = 0
		}
	}
	if _, ok := f.Tables["OS/2"]; ok {
		if err := f.parseOS2Table(); err != nil {
			f.CapHeight = f.Ascender
		}
	}
	if _, ok := f.Tables["name"]; ok {
		_ = f.parseNameTable()
	}

	f.calculateDerivedMetrics()
	return nil
}

// parseHeadTable reads unitsPerEm (offset 18) and the bounding box (36..43).
func (f *TTFFont) parseHeadTable() error {
	data, err := f.tableData("head", headMinLength)
	if err != nil {
		return err
	}
	f.UnitsPerEm = u16(data, 18)
	for i := 0; i < 4; i++ {
		f.FontBBox[i] = i16(data, 36+2*i)
	}
	return nil
}

// parseHheaTable reads ascender, descender, lineGap and numberOfHMetrics.
func (f *TTFFont) parseHheaTable() error {
	data, err := f.tableData("hhea", hheaMinLength)
	if err != nil {
		return err
	}
	f.Ascender = i16(data, 4)
	f.Descender = i16(data, 6)
	f.LineGap = i16(data, 8)
	f.NumHMetrics = u16(data, 34)
	return nil
}

// parseHmtxTable reads the advance widths of the first NumHMetrics glyphs.
// Glyphs after that share the last advance (see GlyphWidth).
func (f *TTFFont) parseHmtxTable() error {
	data, err := f.tableData("hmtx", 4*int(f.NumHMetrics))
	if err != nil {
		return err
	}
	for gid := uint16(0); gid < f.NumHMetrics; gid++ {
		f.GlyphWidths[gid] = u16(data, 4*int(gid))
	}
	return nil
}

// parseCmapTable picks the Windows Unicode BMP subtable and parses it.
func (f *TTFFont) parseCmapTable() error {
	data, err := f.tableData("cmap", 4)
	if err != nil {
		return err
	}

	numTables := int(u16(data, 2))
	if len(data) < 4+8*numTables {
		return fmt.Errorf("encoding records truncated")
	}

	for i := 0; i < numTables; i++ {
		rec := data[4+8*i:]
		platform, encoding := u16(rec, 0), u16(rec, 2)
		offset := binary.BigEndian.Uint32(rec[4:])
		if platform != platformWindows || encoding != encodingUnicodeBMP {
			continue
		}
		if int(offset)+2 > len(data) {
			return fmt.Errorf("subtable offset %d out of bounds", offset)
		}
		switch format := u16(data, int(offset)); format {
		case 4:
			return f.parseCmapFormat4(data[offset:])
		default:
			return fmt.Errorf("unsupported cmap format %d", format)
		}
	}
	return fmt.Errorf("no Windows Unicode BMP subtable")
}

// parseCmapFormat4 parses a segment mapping subtable:
//
//	format(2) length(2) language(2) segCountX2(2) searchRange(2)
//	entrySelector(2) rangeShift(2) endCode[n] pad(2) startCode[n]
//	idDelta[n] idRangeOffset[n] glyphIdArray[]
func (f *TTFFont) parseCmapFormat4(sub []byte) error {
	if len(sub) < 14 {
		return fmt.Errorf("format 4 header truncated")
	}
	segCount := int(u16(sub, 6) / 2)

	endAt := 14
	startAt := endAt + 2*segCount + 2
	deltaAt := startAt + 2*segCount
	rangeAt := deltaAt + 2*segCount
	glyphsAt := rangeAt + 2*segCount
	if len(sub) < glyphsAt {
		return fmt.Errorf("format 4 segments truncated (%d segments)", segCount)
	}

	for seg := 0; seg < segCount; seg++ {
		end := u16(sub, endAt+2*seg)
		start := u16(sub, startAt+2*seg)
		delta := i16(sub, deltaAt+2*seg)
		rangeOffset := u16(sub, rangeAt+2*seg)

		for code := uint32(start); code <= uint32(end) && code != 0xFFFF; code++ {
			var gid uint16
			if rangeOffset == 0 {
				gid = uint16(int32(code) + int32(delta))
			} else {
				// The offset is relative to the idRangeOffset slot itself.
				at := rangeAt + 2*seg + int(rangeOffset) + 2*int(code-uint32(start))
				if at+2 > len(sub) {
					continue
				}
				if gid = u16(sub, at); gid != 0 {
					gid = uint16(int32(gid) + int32(delta))
				}
			}
			if gid != 0 {
				f.CharToGlyph[rune(code)] = gid
			}
		}
	}
	return nil
}

// parsePostTable reads the italic angle (16.16 fixed), underline metrics
// and isFixedPitch.
func (f *TTFFont) parsePostTable() error {
	data, err := f.tableData("post", postMinLength)
	if err != nil {
		return err
	}
	f.ItalicAngle = float64(int32(binary.BigEndian.Uint32(data[4:]))) / 65536.0
	f.UnderlinePosition = i16(data, 8)
	f.UnderlineThickness = i16(data, 10)
	f.IsFixedPitch = binary.BigEndian.Uint32(data[12:]) != 0
	return nil
}

// parseOS2Table reads weight, width, fsType, typographic metrics and, for
// version 2 and later, xHeight and capHeight.
func (f *TTFFont) parseOS2Table() error {
	data, err := f.tableData("OS/2", os2MinLength)
	if err != nil {
		return err
	}
	version := u16(data, 0)
	f.WeightClass = u16(data, 4)
	f.WidthClass = u16(data, 6)
	f.FSType = u16(data, 8)
	f.TypoAscender = i16(data, 68)
	f.TypoDescender = i16(data, 70)

	if version >= 2 && len(data) >= os2V2Length {
		f.XHeight = i16(data, 86)
		f.CapHeight = i16(data, 88)
		return nil
	}
	f.CapHeight = int16(float64(f.Ascender) * 0.7)
	f.XHeight = int16(float64(f.Ascender) * 0.5)
	return nil
}

// parseNameTable extracts the PostScript name (name ID 6).
func (f *TTFFont) parseNameTable() error {
	data, err := f.tableData("name", 6)
	if err != nil {
		return err
	}
	count := int(u16(data, 2))
	storage := int(u16(data, 4))

	for i := 0; i < count; i++ {
		at := 6 + 12*i
		if at+12 > len(data) {
			return fmt.Errorf("name records truncated")
		}
		platform := u16(data, at)
		nameID := u16(data, at+6)
		length := int(u16(data, at+8))
		offset := int(u16(data, at+10))
		if nameID != nameIDPostScript {
			continue
		}

		start := storage + offset
		if start+length > len(data) {
			continue
		}
		raw := data[start : start+length]
		if platform == platformWindows || platform == 0 {
			name, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
			if err != nil {
				return fmt.Errorf("decode PostScript name: %w", err)
			}
			f.PostScriptName = string(name)
		} else {
			f.PostScriptName = string(raw)
		}
		return nil
	}
	return nil
}

// calculateDerivedMetrics estimates StemV from the weight class and sets
// the PDF font flags (PDF 1.7, Table 123).
func (f *TTFFont) calculateDerivedMetrics() {
	switch w := f.WeightClass; {
	case w == 0:
		f.StemV = 80
	case w <= 300:
		f.StemV = 50 + int16(w/10)
	case w <= 500:
		f.StemV = 80 + (int16(w)-400)/5
	case w <= 700:
		f.StemV = 100 + int16((w-500)/5)
	default:
		f.StemV = 130 + int16((w-700)/10)
	}

	const (
		flagFixedPitch  = 1 << 0
		flagNonsymbolic = 1 << 5
		flagItalic      = 1 << 6
	)
	f.Flags = flagNonsymbolic
	if f.IsFixedPitch {
		f.Flags |= flagFixedPitch
	}
	if f.ItalicAngle != 0 {
		f.Flags |= flagItalic
	}
}
