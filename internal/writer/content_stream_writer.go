package writer

import (
	"bytes"
	"fmt"
	"strconv"
)

// ContentStreamWriter builds a page content stream.
//
//	csw := NewContentStreamWriter()
//	csw.BeginText()
//	csw.SetFont("F1", 12)
//	csw.MoveTextPosition(72, 720)
//	csw.ShowGlyphs(glyphs)
//	csw.EndText()
//
// Text is shown as two-byte glyph IDs, matching Identity-H Type0 fonts.
//
// Reference: PDF 1.7, Section 8.2.
type ContentStreamWriter struct {
	buf bytes.Buffer
}

// NewContentStreamWriter returns an empty content stream.
func NewContentStreamWriter() *ContentStreamWriter {
	return &ContentStreamWriter{}
}

// Bytes returns the operators written so far.
func (csw *ContentStreamWriter) Bytes() []byte { return csw.buf.Bytes() }

// String returns the content stream as text.
func (csw *ContentStreamWriter) String() string { return csw.buf.String() }

// Len returns the content length in bytes.
func (csw *ContentStreamWriter) Len() int { return csw.buf.Len() }

// Reset clears the stream.
func (csw *ContentStreamWriter) Reset() { csw.buf.Reset() }

func (csw *ContentStreamWriter) writeOp(operator string, operands ...string) {
	for _, op := range operands {
		csw.buf.WriteString(op)
		csw.buf.WriteByte(' ')
	}
	csw.buf.WriteString(operator)
	csw.buf.WriteByte('\n')
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SaveState writes q.
func (csw *ContentStreamWriter) SaveState() { csw.writeOp("q") }

// RestoreState writes Q.
func (csw *ContentStreamWriter) RestoreState() { csw.writeOp("Q") }

// BeginText writes BT.
func (csw *ContentStreamWriter) BeginText() { csw.writeOp("BT") }

// EndText writes ET.
func (csw *ContentStreamWriter) EndText() { csw.writeOp("ET") }

// SetFont selects font resource name at size points (Tf).
func (csw *ContentStreamWriter) SetFont(name string, size float64) {
	csw.writeOp("Tf", "/"+escapeName(name), num(size))
}

// MoveTextPosition moves to the start of the next line offset by tx, ty (Td).
func (csw *ContentStreamWriter) MoveTextPosition(tx, ty float64) {
	csw.writeOp("Td", num(tx), num(ty))
}

// ShowGlyphs shows glyph IDs as a hex string (Tj).
func (csw *ContentStreamWriter) ShowGlyphs(glyphs []uint16) {
	var hex bytes.Buffer
	hex.WriteByte('<')
	for _, g := range glyphs {
		fmt.Fprintf(&hex, "%04X", g)
	}
	hex.WriteByte('>')
	csw.writeOp("Tj", hex.String())
}

// SetFillColorRGB sets the nonstroking RGB color (rg).
func (csw *ContentStreamWriter) SetFillColorRGB(r, g, b float64) {
	csw.writeOp("rg", num(r), num(g), num(b))
}

// SetFillColorGray sets the nonstroking gray level (g).
func (csw *ContentStreamWriter) SetFillColorGray(gray float64) {
	csw.writeOp("g", num(gray))
}

// Rectangle appends a rectangle to the path (re).
func (csw *ContentStreamWriter) Rectangle(x, y, width, height float64) {
	csw.writeOp("re", num(x), num(y), num(width), num(height))
}

// Fill fills the path with the nonzero winding rule (f).
func (csw *ContentStreamWriter) Fill() { csw.writeOp("f") }
