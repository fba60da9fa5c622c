package writer

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrObjectNotAllocated is returned when an object is written under an
	// ID the registry never handed out.
	ErrObjectNotAllocated = errors.New("object ID not allocated")

	// ErrObjectAlreadyWritten is returned when an ID is written twice in
	// one revision.
	ErrObjectAlreadyWritten = errors.New("object already written")
)

// XRefRecord is the cross-reference data of one written object.
type XRefRecord struct {
	ObjectID int
	Offset   int64
}

// IndirectObjectsRegistry allocates object IDs for one document and
// records where each object of the current revision was written.
//
// IDs start at 1, grow monotonically and are never reused, including
// across suspend and resume: a resumed document seeds the registry from
// the previous trailer /Size.
type IndirectObjectsRegistry struct {
	nextID  int
	written map[int]int64
}

// NewIndirectObjectsRegistry returns a registry whose first ID is 1.
func NewIndirectObjectsRegistry() *IndirectObjectsRegistry {
	return &IndirectObjectsRegistry{
		nextID:  1,
		written: make(map[int]int64),
	}
}

// SeedNextObjectID continues allocation at next. It never moves the
// counter backwards.
func (r *IndirectObjectsRegistry) SeedNextObjectID(next int) error {
	if next < r.nextID {
		return fmt.Errorf("seed next object ID %d: already at %d", next, r.nextID)
	}
	r.nextID = next
	return nil
}

// AllocateNewObjectID reserves the next object ID.
func (r *IndirectObjectsRegistry) AllocateNewObjectID() int {
	id := r.nextID
	r.nextID++
	return id
}

// NextObjectID is the ID the next allocation will return. It doubles as
// the trailer /Size.
func (r *IndirectObjectsRegistry) NextObjectID() int {
	return r.nextID
}

// MarkObjectWritten records that object id starts at offset.
func (r *IndirectObjectsRegistry) MarkObjectWritten(id int, offset int64) error {
	if id < 1 || id >= r.nextID {
		return fmt.Errorf("%w: %d", ErrObjectNotAllocated, id)
	}
	if _, ok := r.written[id]; ok {
		return fmt.Errorf("%w: %d", ErrObjectAlreadyWritten, id)
	}
	r.written[id] = offset
	return nil
}

// IsWritten reports whether id was written in the current revision.
func (r *IndirectObjectsRegistry) IsWritten(id int) bool {
	_, ok := r.written[id]
	return ok
}

// WrittenObjects returns the objects of the current revision by ID.
func (r *IndirectObjectsRegistry) WrittenObjects() []XRefRecord {
	records := make([]XRefRecord, 0, len(r.written))
	for id, off := range r.written {
		records = append(records, XRefRecord{ObjectID: id, Offset: off})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ObjectID < records[j].ObjectID })
	return records
}

// StartRevision forgets the written objects once their xref section is
// out. Allocation continues where it was.
func (r *IndirectObjectsRegistry) StartRevision() {
	r.written = make(map[int]int64)
}
