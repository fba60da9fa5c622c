package resources

import (
	"fmt"

	"github.com/coregx/gxstate/internal/parser"
)

// Snapshot is a checkpointed repository object read without resolving
// any resource.
type Snapshot struct {
	ObjectID  int
	Overrides []Override
	Entries   []SnapshotEntry
}

// SnapshotEntry is one (locator, private object) pair of /Entries.
type SnapshotEntry struct {
	Locator  string
	ObjectID int
}

// ReadSnapshot parses the repository object at objectID.
func ReadSnapshot(rd StateReader, objectID int) (*Snapshot, error) {
	obj, err := rd.ParseObject(objectID)
	if err != nil {
		return nil, fmt.Errorf("repository object %d: %w: %w", objectID, ErrReferenceUnresolved, err)
	}
	dict, ok := obj.(*parser.Dictionary)
	if !ok {
		return nil, fmt.Errorf("repository object %d: %w: %T is not a dictionary", objectID, ErrMalformedState, obj)
	}
	if typ := dict.GetName("Type"); typ != TypeResourceRepository {
		return nil, fmt.Errorf("repository object %d: %w: /Type /%s", objectID, ErrMalformedState, typ)
	}

	snap := &Snapshot{ObjectID: objectID}

	overrides, err := pairArray(rd, dict, "Overrides")
	if err != nil {
		return nil, fmt.Errorf("repository object %d: %w", objectID, err)
	}
	overridden := make(map[string]bool, len(overrides)/2)
	for i := 0; i < len(overrides); i += 2 {
		locator, err := text(overrides[i])
		if err != nil {
			return nil, fmt.Errorf("repository object %d /Overrides[%d]: %w", objectID, i, err)
		}
		override, err := text(overrides[i+1])
		if err != nil {
			return nil, fmt.Errorf("repository object %d /Overrides[%d]: %w", objectID, i+1, err)
		}
		if overridden[locator] {
			return nil, fmt.Errorf("repository object %d: %w: override for %q listed twice", objectID, ErrMalformedState, locator)
		}
		overridden[locator] = true
		snap.Overrides = append(snap.Overrides, Override{Locator: locator, Override: override})
	}

	entries, err := pairArray(rd, dict, "Entries")
	if err != nil {
		return nil, fmt.Errorf("repository object %d: %w", objectID, err)
	}
	seen := make(map[string]bool, len(entries)/2)
	for i := 0; i < len(entries); i += 2 {
		locator, err := text(entries[i])
		if err != nil {
			return nil, fmt.Errorf("repository object %d /Entries[%d]: %w", objectID, i, err)
		}
		ref, ok := entries[i+1].(*parser.IndirectReference)
		if !ok {
			return nil, fmt.Errorf("repository object %d /Entries[%d]: %w: expected a reference, got %s",
				objectID, i+1, ErrMalformedState, entries[i+1])
		}
		if seen[locator] {
			return nil, fmt.Errorf("repository object %d: %w: locator %q listed twice", objectID, ErrMalformedState, locator)
		}
		seen[locator] = true
		snap.Entries = append(snap.Entries, SnapshotEntry{Locator: locator, ObjectID: ref.ObjectNumber})
	}

	return snap, nil
}

// pairArray returns the elements of dict[key], which must be an array of
// even length. A missing key is an empty array.
func pairArray(rd StateReader, dict *parser.Dictionary, key string) ([]parser.PdfObject, error) {
	value := dict.Get(key)
	if value == nil {
		return nil, nil
	}
	value, err := rd.Resolve(value)
	if err != nil {
		return nil, fmt.Errorf("/%s: %w: %w", key, ErrReferenceUnresolved, err)
	}
	arr, ok := value.(*parser.Array)
	if !ok {
		return nil, fmt.Errorf("/%s: %w: not an array", key, ErrMalformedState)
	}
	if arr.Len()%2 != 0 {
		return nil, fmt.Errorf("/%s: %w: odd length %d", key, ErrMalformedState, arr.Len())
	}
	return arr.Elements(), nil
}

func text(obj parser.PdfObject) (string, error) {
	s, ok := obj.(*parser.String)
	if !ok {
		return "", fmt.Errorf("%w: expected a string, got %v", ErrMalformedState, obj)
	}
	t, err := s.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	return t, nil
}
