package resources

import "github.com/coregx/gxstate/internal/parser"

// StateWriter is the document writing surface used by checkpoints.
// *writer.ObjectsContext implements it.
type StateWriter interface {
	AllocateObjectID() int
	StartIndirectObject(id int)
	EndIndirectObject() error

	StartDictionary()
	EndDictionary()
	EndDictionaryWithStream(data []byte, flateEncoded bool)
	WriteKey(key string)

	WriteName(name string)
	WriteInteger(v int64)
	WriteLiteralString(s string)
	WriteIndirectReference(id int)
	StartArray()
	EndArray()
}

// StateReader is the document reading surface used by restores.
// *parser.Reader implements it.
type StateReader interface {
	// ParseObject returns object id without following references.
	ParseObject(id int) (parser.PdfObject, error)

	// Resolve follows indirect references until a direct object.
	Resolve(obj parser.PdfObject) (parser.PdfObject, error)
}

// State is the private state of one resolved resource.
//
// A State is created only by a Factory and owned by the repository entry
// holding it, which calls Release when the entry is dropped.
type State interface {
	// IsValid reports whether the factory produced a usable state.
	IsValid() bool

	// Checkpoint writes exactly one top-level indirect object at objectID.
	// Nested objects may use IDs from w.AllocateObjectID.
	Checkpoint(w StateWriter, objectID int) error

	// Restore reads the object at objectID written by Checkpoint. It fails
	// with ErrMalformedState or ErrReferenceUnresolved.
	Restore(r StateReader, objectID int) error

	// Release drops whatever the state holds.
	Release()
}

// Factory resolves a locator, and an optional override locator, into a
// state. It must not leave side effects behind when it fails.
type Factory[S State] interface {
	Resolve(locator, override string) (S, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc[S State] func(locator, override string) (S, error)

// Resolve calls f(locator, override).
func (f FactoryFunc[S]) Resolve(locator, override string) (S, error) {
	return f(locator, override)
}
