// Package writer emits PDF syntax: indirect objects, dictionaries,
// arrays, streams, cross-reference sections and trailers. All objects of
// a document share one IndirectObjectsRegistry.
package writer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coregx/gxstate/internal/encoding"
)

var (
	// ErrNestedObject is returned when an indirect object is started
	// while another one is open.
	ErrNestedObject = errors.New("indirect object already open")

	// ErrNoOpenObject is returned when ending an object that was never
	// started.
	ErrNoOpenObject = errors.New("no indirect object open")
)

// binaryMarker follows the header so transfer tools treat the file as binary.
const binaryMarker = "%\xe2\xe3\xcf\xd3\n"

// Trailer holds the entries of a trailer dictionary. Zero fields are
// omitted; Size is always written.
type Trailer struct {
	Size int
	Root int
	Prev int64
	ID   [2][]byte

	// Extra entries are written after the standard ones, in order.
	Extra []TrailerEntry
}

// TrailerEntry is an additional trailer key pointing at an object.
type TrailerEntry struct {
	Key      string
	ObjectID int
}

// ObjectsContext writes PDF objects to an output stream and keeps track
// of byte offsets for the cross-reference table.
//
// The first write error sticks: later calls become no-ops and the error
// is reported by EndIndirectObject, WriteXRefAndTrailer and Flush.
//
// Thread Safety: Not thread-safe.
type ObjectsContext struct {
	out      *bufio.Writer
	offset   int64
	registry *IndirectObjectsRegistry
	level    CompressionLevel

	err       error
	openID    int
	separated bool
}

// NewObjectsContext writes to w, which is positioned at byte base of the
// document. base is 0 for a new file and the file size when appending.
func NewObjectsContext(w io.Writer, base int64, registry *IndirectObjectsRegistry) *ObjectsContext {
	return &ObjectsContext{
		out:       bufio.NewWriter(w),
		offset:    base,
		registry:  registry,
		level:     DefaultCompression,
		separated: true,
	}
}

// SetCompressionLevel sets the level used by CompressionLevel users.
func (c *ObjectsContext) SetCompressionLevel(level CompressionLevel) {
	c.level = level
}

// CompressionLevel is the configured stream compression level.
func (c *ObjectsContext) CompressionLevel() CompressionLevel { return c.level }

// Registry returns the shared object ID registry.
func (c *ObjectsContext) Registry() *IndirectObjectsRegistry { return c.registry }

// Offset is the absolute position of the next byte.
func (c *ObjectsContext) Offset() int64 { return c.offset }

// Err returns the sticky error, if any.
func (c *ObjectsContext) Err() error { return c.err }

func (c *ObjectsContext) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *ObjectsContext) raw(s string) {
	if c.err != nil {
		return
	}
	n, err := c.out.WriteString(s)
	c.offset += int64(n)
	if err != nil {
		c.fail(fmt.Errorf("write output: %w", err))
	}
}

func (c *ObjectsContext) rawBytes(b []byte) {
	if c.err != nil {
		return
	}
	n, err := c.out.Write(b)
	c.offset += int64(n)
	if err != nil {
		c.fail(fmt.Errorf("write output: %w", err))
	}
}

// token writes s separated from the previous token by a space.
func (c *ObjectsContext) token(s string) {
	if !c.separated {
		c.raw(" ")
	}
	c.raw(s)
	c.separated = false
}

// WriteHeader writes "%PDF-version" and the binary marker comment.
func (c *ObjectsContext) WriteHeader(version string) {
	c.raw("%PDF-" + version + "\n" + binaryMarker)
	c.separated = true
}

// AllocateObjectID reserves a new object ID from the registry.
func (c *ObjectsContext) AllocateObjectID() int {
	return c.registry.AllocateNewObjectID()
}

// StartNewIndirectObject allocates an ID and starts the object.
func (c *ObjectsContext) StartNewIndirectObject() int {
	id := c.AllocateObjectID()
	c.StartIndirectObject(id)
	return id
}

// StartIndirectObject writes "id 0 obj" for a previously allocated ID.
func (c *ObjectsContext) StartIndirectObject(id int) {
	if c.openID != 0 {
		c.fail(fmt.Errorf("start object %d: %w (%d)", id, ErrNestedObject, c.openID))
		return
	}
	if c.err != nil {
		return
	}
	if err := c.registry.MarkObjectWritten(id, c.offset); err != nil {
		c.fail(err)
		return
	}
	c.openID = id
	c.raw(strconv.Itoa(id) + " 0 obj\n")
	c.separated = true
}

// EndIndirectObject writes "endobj" and returns the sticky error.
func (c *ObjectsContext) EndIndirectObject() error {
	if c.openID == 0 {
		c.fail(ErrNoOpenObject)
		return c.err
	}
	c.raw("\nendobj\n")
	c.openID = 0
	c.separated = true
	return c.err
}

// StartDictionary writes "<<".
func (c *ObjectsContext) StartDictionary() {
	c.token("<<")
	c.separated = false
}

// EndDictionary writes ">>".
func (c *ObjectsContext) EndDictionary() {
	c.token(">>")
}

// WriteKey writes a dictionary key.
func (c *ObjectsContext) WriteKey(key string) {
	c.WriteName(key)
}

// WriteName writes a name object, escaping delimiters and non-regular
// characters as #xx.
func (c *ObjectsContext) WriteName(name string) {
	c.token("/" + escapeName(name))
}

// WriteInteger writes an integer object.
func (c *ObjectsContext) WriteInteger(v int64) {
	c.token(strconv.FormatInt(v, 10))
}

// WriteReal writes a real number without exponent notation.
func (c *ObjectsContext) WriteReal(v float64) {
	c.token(strconv.FormatFloat(v, 'f', -1, 64))
}

// WriteBoolean writes true or false.
func (c *ObjectsContext) WriteBoolean(v bool) {
	c.token(strconv.FormatBool(v))
}

// WriteNull writes null.
func (c *ObjectsContext) WriteNull() {
	c.token("null")
}

// WriteLiteralString writes s as a PDF text string in parentheses.
func (c *ObjectsContext) WriteLiteralString(s string) {
	b, err := encoding.EncodeTextString(s)
	if err != nil {
		c.fail(fmt.Errorf("literal string: %w", err))
		return
	}
	c.token(escapeLiteral(b))
}

// WriteHexString writes raw bytes as <hex>.
func (c *ObjectsContext) WriteHexString(b []byte) {
	c.token(fmt.Sprintf("<%X>", b))
}

// WriteIndirectReference writes "id 0 R".
func (c *ObjectsContext) WriteIndirectReference(id int) {
	c.token(strconv.Itoa(id) + " 0 R")
}

// StartArray writes "[".
func (c *ObjectsContext) StartArray() {
	c.token("[")
	c.separated = true
}

// EndArray writes "]".
func (c *ObjectsContext) EndArray() {
	c.separated = true
	c.token("]")
}

// EndDictionaryWithStream adds /Length (and /Filter /FlateDecode when
// data is already flate-encoded), closes the dictionary and writes data
// as the stream body.
func (c *ObjectsContext) EndDictionaryWithStream(data []byte, flateEncoded bool) {
	c.WriteKey("Length")
	c.WriteInteger(int64(len(data)))
	if flateEncoded {
		c.WriteKey("Filter")
		c.WriteName("FlateDecode")
	}
	c.EndDictionary()
	c.raw("\nstream\n")
	c.rawBytes(data)
	c.raw("\nendstream")
}

// WriteCompressedStream closes the open dictionary with data as the
// stream body, compressed at the configured level unless compression is
// off.
func (c *ObjectsContext) WriteCompressedStream(data []byte) {
	if c.level == NoCompression {
		c.EndDictionaryWithStream(data, false)
		return
	}
	compressed, err := CompressStream(data, c.level)
	if err != nil {
		c.fail(err)
		return
	}
	c.EndDictionaryWithStream(compressed, true)
}

// WriteXRefAndTrailer writes the cross-reference section of the current
// revision, the trailer and startxref, then starts a new revision. It
// returns the offset of the xref section.
//
// Every section lists only objects written in this revision. The first
// revision (Prev == 0) also carries the head of the free list.
func (c *ObjectsContext) WriteXRefAndTrailer(t Trailer) (int64, error) {
	if c.openID != 0 {
		c.fail(fmt.Errorf("xref with object %d open: %w", c.openID, ErrNestedObject))
		return 0, c.err
	}

	xrefOffset := c.offset
	c.raw("xref\n")
	if t.Prev == 0 {
		c.raw("0 1\n0000000000 65535 f \n")
	}
	for _, sub := range subsections(c.registry.WrittenObjects()) {
		c.raw(fmt.Sprintf("%d %d\n", sub[0].ObjectID, len(sub)))
		for _, rec := range sub {
			c.raw(fmt.Sprintf("%010d 00000 n \n", rec.Offset))
		}
	}

	c.raw("trailer\n")
	c.separated = true
	c.StartDictionary()
	c.WriteKey("Size")
	c.WriteInteger(int64(t.Size))
	if t.Root != 0 {
		c.WriteKey("Root")
		c.WriteIndirectReference(t.Root)
	}
	if t.Prev != 0 {
		c.WriteKey("Prev")
		c.WriteInteger(t.Prev)
	}
	if t.ID[0] != nil {
		c.WriteKey("ID")
		c.StartArray()
		c.WriteHexString(t.ID[0])
		c.WriteHexString(t.ID[1])
		c.EndArray()
	}
	for _, e := range t.Extra {
		c.WriteKey(e.Key)
		c.WriteIndirectReference(e.ObjectID)
	}
	c.EndDictionary()
	c.raw(fmt.Sprintf("\nstartxref\n%d\n%%%%EOF\n", xrefOffset))
	c.separated = true

	if c.err != nil {
		return 0, c.err
	}
	c.registry.StartRevision()
	return xrefOffset, nil
}

// Flush writes buffered output and returns the sticky error.
func (c *ObjectsContext) Flush() error {
	if c.err != nil {
		return c.err
	}
	if err := c.out.Flush(); err != nil {
		c.fail(fmt.Errorf("flush output: %w", err))
	}
	return c.err
}

// subsections groups consecutive object IDs.
func subsections(records []XRefRecord) [][]XRefRecord {
	var out [][]XRefRecord
	for i := 0; i < len(records); {
		j := i + 1
		for j < len(records) && records[j].ObjectID == records[j-1].ObjectID+1 {
			j++
		}
		out = append(out, records[i:j])
		i = j
	}
	return out
}

func escapeLiteral(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) + 2)
	sb.WriteByte('(')
	for _, ch := range b {
		switch ch {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(ch)
		case '\r':
			sb.WriteString(`\r`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(ch)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func escapeName(name string) string {
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch < '!' || ch > '~' || strings.IndexByte("()<>[]{}/%#", ch) >= 0 {
			fmt.Fprintf(&sb, "#%02X", ch)
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}
