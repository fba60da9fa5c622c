// Package parser reads the PDF syntax needed to restore a suspended
// document: the lexer, the object parser, classic cross-reference tables
// and a Reader that follows incremental-update chains.
package parser

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrXRefStreamUnsupported is returned when a revision uses a
// cross-reference stream instead of a classic table.
var ErrXRefStreamUnsupported = errors.New("cross-reference streams are not supported")

// XRefEntryType is the kind of a cross-reference entry.
type XRefEntryType int

const (
	// XRefEntryFree marks a free object: "next gen f".
	XRefEntryFree XRefEntryType = iota
	// XRefEntryInUse marks an object stored at a byte offset: "offset gen n".
	XRefEntryInUse
)

func (t XRefEntryType) String() string {
	switch t {
	case XRefEntryFree:
		return "free"
	case XRefEntryInUse:
		return "in-use"
	default:
		return "unknown"
	}
}

// XRefEntry is one row of a cross-reference section.
//
// Reference: PDF 1.7 specification, Section 7.5.4 (Cross-Reference Table).
type XRefEntry struct {
	ObjectNum  int
	Type       XRefEntryType
	Offset     int64 // byte offset (in-use) or next free object (free)
	Generation int
}

// NewXRefEntry creates a cross-reference entry.
func NewXRefEntry(objectNum int, entryType XRefEntryType, offset int64, generation int) *XRefEntry {
	return &XRefEntry{
		ObjectNum:  objectNum,
		Type:       entryType,
		Offset:     offset,
		Generation: generation,
	}
}

// String formats the entry as it appears in a table, minus the EOL.
func (e *XRefEntry) String() string {
	kind := "n"
	if e.Type == XRefEntryFree {
		kind = "f"
	}
	return fmt.Sprintf("%010d %05d %s", e.Offset, e.Generation, kind)
}

// IsFree reports whether the entry is free.
func (e *XRefEntry) IsFree() bool { return e.Type == XRefEntryFree }

// IsInUse reports whether the entry points at a stored object.
func (e *XRefEntry) IsInUse() bool { return e.Type == XRefEntryInUse }

// XRefTable is a merged view of one or more cross-reference sections.
type XRefTable struct {
	Entries map[int]*XRefEntry
	Trailer *Dictionary
}

// NewXRefTable creates an empty table.
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: NewDictionary(),
	}
}

// AddEntry stores entry, replacing any entry for the same object.
func (t *XRefTable) AddEntry(entry *XRefEntry) {
	if entry != nil {
		t.Entries[entry.ObjectNum] = entry
	}
}

// GetEntry returns the entry for objectNum.
func (t *XRefTable) GetEntry(objectNum int) (*XRefEntry, bool) {
	e, ok := t.Entries[objectNum]
	return e, ok
}

// Size returns the number of entries.
func (t *XRefTable) Size() int { return len(t.Entries) }

// HasObject reports whether objectNum has an entry.
func (t *XRefTable) HasObject(objectNum int) bool {
	_, ok := t.Entries[objectNum]
	return ok
}

// ObjectNumbers returns the in-use object numbers in ascending order.
func (t *XRefTable) ObjectNumbers() []int {
	nums := make([]int, 0, len(t.Entries))
	for n, e := range t.Entries {
		if e.IsInUse() {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums
}

// MergeOlder adds the entries of an older section that this (newer) table
// does not already define.
//
// Reference: PDF 1.7 specification, Section 7.5.6 (Incremental Updates).
func (t *XRefTable) MergeOlder(older *XRefTable) {
	if older == nil {
		return
	}
	for n, e := range older.Entries {
		if _, ok := t.Entries[n]; !ok {
			t.Entries[n] = e
		}
	}
}

func (t *XRefTable) String() string {
	return fmt.Sprintf("XRefTable{entries: %d, trailer: %v}", t.Size(), t.Trailer)
}

// ParseXRef parses a classic cross-reference section and its trailer:
//
//	xref
//	0 1
//	0000000000 65535 f
//	trailer
//	<< /Size 1 >>
//
// A section that starts with an object header is a cross-reference stream
// and yields ErrXRefStreamUnsupported.
func (p *Parser) ParseXRef() (*XRefTable, error) {
	if err := p.lexErr(); err != nil {
		return nil, err
	}
	if p.match(TokenInteger) {
		return nil, ErrXRefStreamUnsupported
	}
	if !p.matchKeyword("xref") {
		return nil, p.unexpected("'xref'")
	}
	p.advance()

	table := NewXRefTable()
	for p.match(TokenInteger) {
		if err := p.parseXRefSubsection(table); err != nil {
			return nil, err
		}
	}

	if !p.matchKeyword("trailer") {
		return nil, p.unexpected("'trailer'")
	}
	p.advance()

	trailer, err := p.parseDictionary()
	if err != nil {
		return nil, fmt.Errorf("trailer: %w", err)
	}
	table.Trailer = trailer
	return table, nil
}

// parseXRefSubsection parses "start count" followed by count entries.
func (p *Parser) parseXRefSubsection(table *XRefTable) error {
	start, err := p.parseHeaderInt("subsection start")
	if err != nil {
		return err
	}
	count, err := p.parseHeaderInt("subsection count")
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		entry, err := p.parseXRefEntry(start + i)
		if err != nil {
			return fmt.Errorf("xref entry %d: %w", start+i, err)
		}
		table.AddEntry(entry)
	}
	return nil
}

// parseXRefEntry parses "nnnnnnnnnn ggggg n|f".
func (p *Parser) parseXRefEntry(objectNum int) (*XRefEntry, error) {
	if err := p.lexErr(); err != nil {
		return nil, err
	}
	if !p.match(TokenInteger) {
		return nil, p.unexpected("offset")
	}
	offset, err := strconv.ParseInt(p.current.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid offset %q: %w", p.current.Value, err)
	}
	p.advance()

	gen, err := p.parseHeaderInt("generation")
	if err != nil {
		return nil, err
	}

	var kind XRefEntryType
	switch {
	case p.matchKeyword("n"):
		kind = XRefEntryInUse
	case p.matchKeyword("f"):
		kind = XRefEntryFree
	default:
		return nil, p.unexpected("'n' or 'f'")
	}
	p.advance()

	return NewXRefEntry(objectNum, kind, offset, gen), nil
}

// ParseStartXRef parses "startxref offset" and returns the offset.
func (p *Parser) ParseStartXRef() (int64, error) {
	if err := p.lexErr(); err != nil {
		return 0, err
	}
	if !p.matchKeyword("startxref") {
		return 0, p.unexpected("'startxref'")
	}
	p.advance()
	if !p.match(TokenInteger) {
		return 0, p.unexpected("startxref offset")
	}
	offset, err := strconv.ParseInt(p.current.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid startxref offset %q: %w", p.current.Value, err)
	}
	p.advance()
	return offset, nil
}
