package writer

import (
	"fmt"

	"github.com/coregx/gxstate/internal/fonts"
)

// EmbeddedFontRefs holds the object IDs of an embedded font.
type EmbeddedFontRefs struct {
	FontObjNum       int // Type0 font dictionary
	CIDFontObjNum    int // CIDFontType2 descendant
	DescriptorObjNum int // FontDescriptor
	ToUnicodeObjNum  int // ToUnicode CMap stream
	FontFileObjNum   int // FontFile2 stream
}

// TrueTypeFontWriter writes a TrueType font as a composite font:
//
//	Type0 (/Encoding /Identity-H)
//	  └─ CIDFontType2 (/CIDToGIDMap /Identity, /W for used glyphs)
//	       └─ FontDescriptor
//	            └─ FontFile2 (whole font program)
//	ToUnicode CMap (used glyphs back to Unicode)
//
// Content streams address glyphs by ID, so characters outside Latin-1
// need no encoding tables.
//
// Reference: PDF 1.7, Sections 9.7 (Composite Fonts) and 9.8 (FontDescriptor).
type TrueTypeFontWriter struct {
	ttf    *fonts.TTFFont
	subset *fonts.FontSubset
}

// NewTrueTypeFontWriter returns a writer for the glyphs subset uses.
func NewTrueTypeFontWriter(subset *fonts.FontSubset) *TrueTypeFontWriter {
	return &TrueTypeFontWriter{ttf: subset.BaseFont, subset: subset}
}

// WriteFont writes the font dictionary at fontObjectID, which content
// streams already reference, then allocates and writes the other four
// objects.
func (w *TrueTypeFontWriter) WriteFont(ctx *ObjectsContext, fontObjectID int) (*EmbeddedFontRefs, error) {
	fd := fonts.GenerateFontDescriptor(w.ttf)
	if fd == nil {
		return nil, fmt.Errorf("no font to write")
	}

	refs := &EmbeddedFontRefs{
		FontObjNum:       fontObjectID,
		CIDFontObjNum:    ctx.AllocateObjectID(),
		DescriptorObjNum: ctx.AllocateObjectID(),
		ToUnicodeObjNum:  ctx.AllocateObjectID(),
		FontFileObjNum:   ctx.AllocateObjectID(),
	}

	steps := []struct {
		name  string
		write func() error
	}{
		{"Type0 font", func() error { return w.writeType0(ctx, refs, fd.FontName) }},
		{"CIDFont", func() error { return w.writeCIDFont(ctx, refs, fd.FontName) }},
		{"font descriptor", func() error { return w.writeDescriptor(ctx, refs, fd) }},
		{"ToUnicode", func() error { return w.writeToUnicode(ctx, refs) }},
		{"font file", func() error { return w.writeFontFile(ctx, refs) }},
	}
	for _, s := range steps {
		if err := s.write(); err != nil {
			return nil, fmt.Errorf("write %s of %s: %w", s.name, fd.FontName, err)
		}
	}
	return refs, nil
}

func (w *TrueTypeFontWriter) writeType0(ctx *ObjectsContext, refs *EmbeddedFontRefs, name string) error {
	ctx.StartIndirectObject(refs.FontObjNum)
	ctx.StartDictionary()
	ctx.WriteKey("Type")
	ctx.WriteName("Font")
	ctx.WriteKey("Subtype")
	ctx.WriteName("Type0")
	ctx.WriteKey("BaseFont")
	ctx.WriteName(name)
	ctx.WriteKey("Encoding")
	ctx.WriteName("Identity-H")
	ctx.WriteKey("DescendantFonts")
	ctx.StartArray()
	ctx.WriteIndirectReference(refs.CIDFontObjNum)
	ctx.EndArray()
	ctx.WriteKey("ToUnicode")
	ctx.WriteIndirectReference(refs.ToUnicodeObjNum)
	ctx.EndDictionary()
	return ctx.EndIndirectObject()
}

func (w *TrueTypeFontWriter) writeCIDFont(ctx *ObjectsContext, refs *EmbeddedFontRefs, name string) error {
	ctx.StartIndirectObject(refs.CIDFontObjNum)
	ctx.StartDictionary()
	ctx.WriteKey("Type")
	ctx.WriteName("Font")
	ctx.WriteKey("Subtype")
	ctx.WriteName("CIDFontType2")
	ctx.WriteKey("BaseFont")
	ctx.WriteName(name)
	ctx.WriteKey("CIDSystemInfo")
	ctx.StartDictionary()
	ctx.WriteKey("Registry")
	ctx.WriteLiteralString("Adobe")
	ctx.WriteKey("Ordering")
	ctx.WriteLiteralString("Identity")
	ctx.WriteKey("Supplement")
	ctx.WriteInteger(0)
	ctx.EndDictionary()
	ctx.WriteKey("FontDescriptor")
	ctx.WriteIndirectReference(refs.DescriptorObjNum)
	ctx.WriteKey("DW")
	ctx.WriteInteger(int64(w.ttf.ToPDFUnits(int(w.ttf.AdvanceWidth(0)))))
	ctx.WriteKey("W")
	w.writeWidths(ctx)
	ctx.WriteKey("CIDToGIDMap")
	ctx.WriteName("Identity")
	ctx.EndDictionary()
	return ctx.EndIndirectObject()
}

// writeWidths writes the /W array, one "first [w1 w2 ..]" run per block
// of consecutive glyph IDs.
func (w *TrueTypeFontWriter) writeWidths(ctx *ObjectsContext) {
	ctx.StartArray()
	open := false
	prev := -1
	for _, g := range w.subset.Glyphs() {
		gid := int(g.GlyphID)
		if gid == prev {
			continue
		}
		if gid != prev+1 || !open {
			if open {
				ctx.EndArray()
			}
			ctx.WriteInteger(int64(gid))
			ctx.StartArray()
			open = true
		}
		width, _ := w.ttf.GlyphWidth(g.Char)
		ctx.WriteInteger(int64(w.ttf.ToPDFUnits(int(width))))
		prev = gid
	}
	if open {
		ctx.EndArray()
	}
	ctx.EndArray()
}

func (w *TrueTypeFontWriter) writeDescriptor(ctx *ObjectsContext, refs *EmbeddedFontRefs, fd *fonts.FontDescriptor) error {
	ctx.StartIndirectObject(refs.DescriptorObjNum)
	ctx.StartDictionary()
	ctx.WriteKey("Type")
	ctx.WriteName("FontDescriptor")
	ctx.WriteKey("FontName")
	ctx.WriteName(fd.FontName)
	ctx.WriteKey("Flags")
	ctx.WriteInteger(int64(fd.Flags))
	ctx.WriteKey("FontBBox")
	ctx.StartArray()
	for _, v := range fd.FontBBox {
		ctx.WriteInteger(int64(v))
	}
	ctx.EndArray()
	ctx.WriteKey("ItalicAngle")
	ctx.WriteReal(fd.ItalicAngle)
	ctx.WriteKey("Ascent")
	ctx.WriteInteger(int64(fd.Ascent))
	ctx.WriteKey("Descent")
	ctx.WriteInteger(int64(fd.Descent))
	ctx.WriteKey("CapHeight")
	ctx.WriteInteger(int64(fd.CapHeight))
	ctx.WriteKey("StemV")
	ctx.WriteInteger(int64(fd.StemV))
	if fd.XHeight > 0 {
		ctx.WriteKey("XHeight")
		ctx.WriteInteger(int64(fd.XHeight))
	}
	ctx.WriteKey("FontFile2")
	ctx.WriteIndirectReference(refs.FontFileObjNum)
	ctx.EndDictionary()
	return ctx.EndIndirectObject()
}

func (w *TrueTypeFontWriter) writeToUnicode(ctx *ObjectsContext, refs *EmbeddedFontRefs) error {
	ctx.StartIndirectObject(refs.ToUnicodeObjNum)
	ctx.StartDictionary()
	ctx.WriteCompressedStream(fonts.GenerateToUnicodeCMap(w.subset))
	return ctx.EndIndirectObject()
}

func (w *TrueTypeFontWriter) writeFontFile(ctx *ObjectsContext, refs *EmbeddedFontRefs) error {
	ctx.StartIndirectObject(refs.FontFileObjNum)
	ctx.StartDictionary()
	ctx.WriteKey("Length1")
	ctx.WriteInteger(int64(len(w.ttf.FontData)))
	ctx.WriteCompressedStream(w.ttf.FontData)
	return ctx.EndIndirectObject()
}
