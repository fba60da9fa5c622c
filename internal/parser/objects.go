package parser

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coregx/gxstate/internal/encoding"
)

// PdfObject is any PDF object produced by the Parser.
//
// Reference: PDF 1.7 specification, Section 7.3 (Objects).
type PdfObject interface {
	// String returns the object in PDF syntax (for debugging and tests).
	String() string
}

// Null is the PDF null object.
type Null struct{}

// NewNull creates a null object.
func NewNull() *Null { return &Null{} }

func (n *Null) String() string { return "null" }

// Boolean is a PDF boolean.
type Boolean struct {
	value bool
}

// NewBoolean creates a boolean object.
func NewBoolean(v bool) *Boolean { return &Boolean{value: v} }

// Value returns the boolean value.
func (b *Boolean) Value() bool { return b.value }

func (b *Boolean) String() string { return strconv.FormatBool(b.value) }

// Integer is a PDF integer.
type Integer struct {
	value int64
}

// NewInteger creates an integer object.
func NewInteger(v int64) *Integer { return &Integer{value: v} }

// Value returns the integer value.
func (i *Integer) Value() int64 { return i.value }

// Int returns the value as an int.
func (i *Integer) Int() int { return int(i.value) }

func (i *Integer) String() string { return strconv.FormatInt(i.value, 10) }

// Real is a PDF real number.
type Real struct {
	value float64
}

// NewReal creates a real object.
func NewReal(v float64) *Real { return &Real{value: v} }

// Value returns the real value.
func (r *Real) Value() float64 { return r.value }

func (r *Real) String() string { return strconv.FormatFloat(r.value, 'f', -1, 64) }

// String is a PDF string object (literal or hexadecimal).
//
// The value holds the decoded bytes: escapes of literal strings and hex
// digits of hexadecimal strings are already resolved by the Lexer.
type String struct {
	value string
	isHex bool
}

// NewString creates a literal string object from decoded bytes.
func NewString(v string) *String { return &String{value: v} }

// NewHexString creates a hexadecimal string object from decoded bytes.
func NewHexString(v string) *String { return &String{value: v, isHex: true} }

// Value returns the raw decoded bytes as a string.
func (s *String) Value() string { return s.value }

// IsHex reports whether the string was written in hexadecimal form.
func (s *String) IsHex() bool { return s.isHex }

// Text decodes the string as a PDF text string (PDFDocEncoding or UTF-16BE).
func (s *String) Text() (string, error) {
	return encoding.DecodeTextString([]byte(s.value))
}

func (s *String) String() string {
	if s.isHex {
		return fmt.Sprintf("<%X>", []byte(s.value))
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for i := 0; i < len(s.value); i++ {
		switch c := s.value[i]; c {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// Name is a PDF name object (without the leading slash).
type Name struct {
	value string
}

// NewName creates a name object.
func NewName(v string) *Name { return &Name{value: v} }

// Value returns the name without the leading slash.
func (n *Name) Value() string { return n.value }

func (n *Name) String() string { return "/" + n.value }

// Array is a PDF array.
type Array struct {
	elements []PdfObject
}

// NewArray creates an empty array.
func NewArray() *Array { return &Array{} }

// Append adds an element to the end of the array.
func (a *Array) Append(obj PdfObject) { a.elements = append(a.elements, obj) }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.elements) }

// Get returns the element at index i, or nil when out of range.
func (a *Array) Get(i int) PdfObject {
	if i < 0 || i >= len(a.elements) {
		return nil
	}
	return a.elements[i]
}

// Elements returns the underlying elements.
func (a *Array) Elements() []PdfObject { return a.elements }

func (a *Array) String() string {
	parts := make([]string, len(a.elements))
	for i, e := range a.elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Dictionary is a PDF dictionary. Keys keep their insertion order.
type Dictionary struct {
	entries map[string]PdfObject
	keys    []string
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{entries: make(map[string]PdfObject)}
}

// Set stores value under key (without the leading slash).
func (d *Dictionary) Set(key string, value PdfObject) {
	if _, exists := d.entries[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = value
}

// Get returns the value for key, or nil.
func (d *Dictionary) Get(key string) PdfObject {
	return d.entries[key]
}

// Has reports whether key is present.
func (d *Dictionary) Has(key string) bool {
	_, ok := d.entries[key]
	return ok
}

// Keys returns the keys in insertion order.
func (d *Dictionary) Keys() []string { return d.keys }

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.entries) }

// GetInteger returns the integer value for key, or 0 if absent or not an integer.
func (d *Dictionary) GetInteger(key string) int64 {
	if v, ok := d.entries[key].(*Integer); ok {
		return v.value
	}
	return 0
}

// GetName returns the name value for key, or "" if absent or not a name.
func (d *Dictionary) GetName(key string) string {
	if v, ok := d.entries[key].(*Name); ok {
		return v.value
	}
	return ""
}

func (d *Dictionary) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for _, k := range d.keys {
		sb.WriteString(" /")
		sb.WriteString(k)
		sb.WriteByte(' ')
		sb.WriteString(d.entries[k].String())
	}
	sb.WriteString(" >>")
	return sb.String()
}

// IndirectReference is a reference "N G R" to an indirect object.
type IndirectReference struct {
	ObjectNumber     int
	GenerationNumber int
}

// NewIndirectReference creates a reference to object num, generation gen.
func NewIndirectReference(num, gen int) *IndirectReference {
	return &IndirectReference{ObjectNumber: num, GenerationNumber: gen}
}

func (r *IndirectReference) String() string {
	return fmt.Sprintf("%d %d R", r.ObjectNumber, r.GenerationNumber)
}

// Stream is a PDF stream: a dictionary followed by raw (possibly encoded) bytes.
type Stream struct {
	Dictionary *Dictionary
	Content    []byte
}

// NewStream creates a stream object.
func NewStream(dict *Dictionary, content []byte) *Stream {
	return &Stream{Dictionary: dict, Content: content}
}

// Decode returns the stream content with its filters removed.
//
// Only /FlateDecode (alone or as a one-element filter array) is supported.
func (s *Stream) Decode() ([]byte, error) {
	filter := s.Dictionary.Get("Filter")
	if arr, ok := filter.(*Array); ok {
		switch arr.Len() {
		case 0:
			filter = nil
		case 1:
			filter = arr.Get(0)
		default:
			return nil, fmt.Errorf("unsupported filter chain of %d filters", arr.Len())
		}
	}

	if filter == nil {
		return s.Content, nil
	}

	name, ok := filter.(*Name)
	if !ok {
		return nil, fmt.Errorf("invalid /Filter %s", filter)
	}
	if name.Value() != filterFlateDecode {
		return nil, fmt.Errorf("unsupported filter /%s", name.Value())
	}

	zr, err := zlib.NewReader(bytes.NewReader(s.Content))
	if err != nil {
		return nil, fmt.Errorf("create zlib reader: %w", err)
	}
	defer func() { _ = zr.Close() }()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate stream: %w", err)
	}
	return data, nil
}

func (s *Stream) String() string {
	return fmt.Sprintf("%s stream(%d bytes)", s.Dictionary, len(s.Content))
}

// IndirectObject is a parsed "N G obj ... endobj" construct.
type IndirectObject struct {
	Number     int
	Generation int
	Object     PdfObject
}

// NewIndirectObject creates an indirect object wrapper.
func NewIndirectObject(num, gen int, obj PdfObject) *IndirectObject {
	return &IndirectObject{Number: num, Generation: gen, Object: obj}
}

func (o *IndirectObject) String() string {
	return fmt.Sprintf("%d %d obj %s endobj", o.Number, o.Generation, o.Object)
}
