package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/edsrzf/mmap-go"
	"github.com/spf13/afero"
)

const filterFlateDecode = "FlateDecode"

// maxXRefChainDepth bounds the number of /Prev links followed.
const maxXRefChainDepth = 100

// maxHeaderSearchSize is how far into the file the %PDF- marker may appear
// (PDF 1.7 Appendix H.3).
const maxHeaderSearchSize = 1024

// startXRefSearchSize is how far from the end "startxref" is searched for.
const startXRefSearchSize = 2048

// ErrObjectNotFound is returned when an object number has no in-use entry.
var ErrObjectNotFound = errors.New("object not found")

// Reader provides random access to the indirect objects of a PDF file.
//
// Files opened from an OS-backed afero.Fs are memory-mapped. Other file
// systems are read into memory. Every revision of an incrementally updated
// file is merged into one cross-reference view, newer sections winning.
//
// Reader is safe for concurrent ParseObject calls.
//
// Reference: PDF 1.7 specification, Section 7.5 (File Structure).
type Reader struct {
	fs       afero.Fs
	filename string

	file   afero.File
	mapped mmap.MMap
	data   []byte

	version      string
	headerOffset int64
	startXRef    int64
	xrefTable    *XRefTable
	trailer      *Dictionary
	revisions    int

	mu          sync.RWMutex
	objectCache map[int]PdfObject
}

// NewReader creates a reader for filename on fs. The file is not touched
// until Open is called.
func NewReader(fs afero.Fs, filename string) *Reader {
	return &Reader{
		fs:          fs,
		filename:    filename,
		objectCache: make(map[int]PdfObject),
	}
}

// NewReaderFromBytes creates a reader over an in-memory PDF.
func NewReaderFromBytes(data []byte) *Reader {
	return &Reader{
		data:        data,
		objectCache: make(map[int]PdfObject),
	}
}

// Open loads the file and parses its header and cross-reference chain.
func (r *Reader) Open() error {
	if r.data == nil {
		if err := r.load(); err != nil {
			return err
		}
	}

	if err := r.readHeader(); err != nil {
		_ = r.Close()
		return fmt.Errorf("read header: %w", err)
	}

	offset, err := r.findStartXRef()
	if err != nil {
		_ = r.Close()
		return fmt.Errorf("find startxref: %w", err)
	}
	r.startXRef = offset

	if err := r.parseXRefChain(offset); err != nil {
		_ = r.Close()
		return fmt.Errorf("parse xref: %w", err)
	}
	return nil
}

// load maps or reads the file contents.
func (r *Reader) load() error {
	f, err := r.fs.Open(r.filename)
	if err != nil {
		return fmt.Errorf("open %s: %w", r.filename, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat %s: %w", r.filename, err)
	}
	if info.Size() == 0 {
		_ = f.Close()
		return fmt.Errorf("%s: empty file", r.filename)
	}

	if osFile, ok := f.(*os.File); ok {
		m, err := mmap.Map(osFile, mmap.RDONLY, 0)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("mmap %s: %w", r.filename, err)
		}
		r.file = f
		r.mapped = m
		r.data = m
		return nil
	}

	data, err := afero.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", r.filename, err)
	}
	r.data = data
	return nil
}

// Close releases the mapping and the file. It is safe to call twice.
func (r *Reader) Close() error {
	var err error
	if r.mapped != nil {
		err = r.mapped.Unmap()
		r.mapped = nil
		r.data = nil
	}
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
		r.file = nil
	}
	return err
}

// readHeader locates "%PDF-X.Y" and records the version and the number of
// junk bytes before it. Stored offsets are relative to the marker.
func (r *Reader) readHeader() error {
	head := r.data
	if len(head) > maxHeaderSearchSize {
		head = head[:maxHeaderSearchSize]
	}

	const marker = "%PDF-"
	idx := bytes.Index(head, []byte(marker))
	if idx < 0 {
		return fmt.Errorf("missing %%PDF- marker")
	}
	prefix := strings.TrimPrefix(string(head[:idx]), "\xef\xbb\xbf")
	if strings.TrimLeft(prefix, " \t\r\n") != "" {
		return fmt.Errorf("unexpected data before %%PDF- marker")
	}

	line := string(head[idx+len(marker):])
	if eol := strings.IndexAny(line, "\r\n"); eol >= 0 {
		line = line[:eol]
	}
	version := strings.TrimSpace(line)
	if len(version) < 3 {
		return fmt.Errorf("invalid version %q", version)
	}

	r.version = version
	r.headerOffset = int64(idx)
	return nil
}

// findStartXRef returns the offset recorded after the last "startxref".
func (r *Reader) findStartXRef() (int64, error) {
	from := len(r.data) - startXRefSearchSize
	if from < 0 {
		from = 0
	}
	idx := bytes.LastIndex(r.data[from:], []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found in last %d bytes", startXRefSearchSize)
	}

	p := NewParserFromBytes(r.data[from+idx:])
	offset, err := p.ParseStartXRef()
	if err != nil {
		return 0, err
	}
	if offset < 0 || r.adjust(offset) >= int64(len(r.data)) {
		return 0, fmt.Errorf("startxref offset %d out of bounds (size %d)", offset, len(r.data))
	}
	return offset, nil
}

func (r *Reader) adjust(offset int64) int64 {
	return offset + r.headerOffset
}

// parseXRefChain walks the /Prev links from the newest section to the
// oldest. The newest trailer becomes the document trailer.
func (r *Reader) parseXRefChain(offset int64) error {
	merged := NewXRefTable()
	var newest *Dictionary
	visited := make(map[int64]bool)

	for depth := 0; offset >= 0; depth++ {
		if depth >= maxXRefChainDepth {
			return fmt.Errorf("xref chain deeper than %d sections", maxXRefChainDepth)
		}
		if visited[offset] {
			return fmt.Errorf("xref chain cycle at offset %d", offset)
		}
		visited[offset] = true

		pos := r.adjust(offset)
		if pos < 0 || pos >= int64(len(r.data)) {
			return fmt.Errorf("xref offset %d out of bounds", offset)
		}
		section, err := NewParserFromBytes(r.data[pos:]).ParseXRef()
		if err != nil {
			return fmt.Errorf("section at offset %d: %w", offset, err)
		}

		merged.MergeOlder(section)
		if newest == nil {
			newest = section.Trailer
		}
		r.revisions++

		offset = -1
		if prev := section.Trailer.GetInteger("Prev"); prev > 0 {
			offset = prev
		}
	}

	merged.Trailer = newest
	r.xrefTable = merged
	r.trailer = newest
	return nil
}

// ParseObject returns the object stored as indirect object objectNum.
//
// References inside the object are left unresolved; use Resolve to follow
// them.
func (r *Reader) ParseObject(objectNum int) (PdfObject, error) {
	r.mu.RLock()
	obj, ok := r.objectCache[objectNum]
	r.mu.RUnlock()
	if ok {
		return obj, nil
	}

	if r.xrefTable == nil {
		return nil, fmt.Errorf("reader not open")
	}
	entry, ok := r.xrefTable.GetEntry(objectNum)
	if !ok || !entry.IsInUse() {
		return nil, fmt.Errorf("object %d: %w", objectNum, ErrObjectNotFound)
	}

	pos := r.adjust(entry.Offset)
	if pos < 0 || pos >= int64(len(r.data)) {
		return nil, fmt.Errorf("object %d: offset %d out of bounds", objectNum, entry.Offset)
	}

	indirect, err := NewParserFromBytes(r.data[pos:]).ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("parse object %d: %w", objectNum, err)
	}
	if indirect.Number != objectNum {
		return nil, fmt.Errorf("object number mismatch: expected %d, found %d", objectNum, indirect.Number)
	}
	if indirect.Generation != entry.Generation {
		return nil, fmt.Errorf("object %d: generation mismatch: expected %d, found %d",
			objectNum, entry.Generation, indirect.Generation)
	}

	r.mu.Lock()
	r.objectCache[objectNum] = indirect.Object
	r.mu.Unlock()
	return indirect.Object, nil
}

// Resolve follows obj through indirect references until it reaches a
// direct object. Non-reference objects are returned as is.
func (r *Reader) Resolve(obj PdfObject) (PdfObject, error) {
	seen := make(map[int]bool)
	for {
		ref, ok := obj.(*IndirectReference)
		if !ok {
			return obj, nil
		}
		if seen[ref.ObjectNumber] {
			return nil, fmt.Errorf("reference cycle at %s", ref)
		}
		seen[ref.ObjectNumber] = true

		next, err := r.ParseObject(ref.ObjectNumber)
		if err != nil {
			return nil, err
		}
		obj = next
	}
}

// ResolveDictionary resolves obj and requires a dictionary (or the
// dictionary of a stream).
func (r *Reader) ResolveDictionary(obj PdfObject) (*Dictionary, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch v := resolved.(type) {
	case *Dictionary:
		return v, nil
	case *Stream:
		return v.Dictionary, nil
	default:
		return nil, fmt.Errorf("expected dictionary, got %T", resolved)
	}
}

// Catalog returns the document catalog, or nil when the trailer has no
// /Root (a suspended document has none).
func (r *Reader) Catalog() (*Dictionary, error) {
	if r.trailer == nil {
		return nil, fmt.Errorf("reader not open")
	}
	root := r.trailer.Get("Root")
	if root == nil {
		return nil, nil
	}
	catalog, err := r.ResolveDictionary(root)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if t := catalog.GetName("Type"); t != "" && t != "Catalog" {
		return nil, fmt.Errorf("root object has /Type /%s", t)
	}
	return catalog, nil
}

// Version returns the header version, e.g. "1.7".
func (r *Reader) Version() string { return r.version }

// Trailer returns the newest trailer dictionary.
func (r *Reader) Trailer() *Dictionary { return r.trailer }

// StartXRef returns the offset of the newest cross-reference section.
func (r *Reader) StartXRef() int64 { return r.startXRef }

// XRefTable returns the merged cross-reference table.
func (r *Reader) XRefTable() *XRefTable { return r.xrefTable }

// Revisions returns the number of cross-reference sections in the chain.
func (r *Reader) Revisions() int { return r.revisions }

// Size returns the /Size of the newest trailer.
func (r *Reader) Size() int {
	if r.trailer == nil {
		return 0
	}
	return int(r.trailer.GetInteger("Size"))
}

// Len returns the length of the file in bytes.
func (r *Reader) Len() int64 { return int64(len(r.data)) }

func (r *Reader) String() string {
	objects := 0
	if r.xrefTable != nil {
		objects = r.xrefTable.Size()
	}
	return fmt.Sprintf("Reader{file: %q, version: %s, revisions: %d, objects: %d}",
		r.filename, r.version, r.revisions, objects)
}
