// Package resources implements an identity-keyed cache of resource state
// that can be checkpointed into a PDF and restored from it in a later
// process.
//
// A Repository maps locators (font paths, for example) to entries that
// are either Resolved, holding a State built by the Factory, or
// Unresolved, recording a failed attempt that is not retried. A second,
// ordered table associates locators with override locators that change
// how the Factory resolves them.
//
// Checkpoint writes one repository object:
//
//	<< /Type /ResourceRepository
//	   /Overrides [(locator) (override) ...]
//	   /Entries [(locator) N 0 R ...] >>
//
// followed by each Resolved state's private object at its reserved ID.
// Restore rebuilds the cache from that object, matching locators to
// private objects by array position only.
package resources

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/coregx/gxstate/logging"
)

// TypeResourceRepository is the /Type of a checkpointed repository.
const TypeResourceRepository = "ResourceRepository"

// EntryStatus is the state of a locator in the cache.
type EntryStatus int

const (
	// StatusAbsent means the locator was never looked up since the last
	// Restore.
	StatusAbsent EntryStatus = iota
	// StatusResolved means the locator has a cached state.
	StatusResolved
	// StatusUnresolved means resolution failed and is not retried.
	StatusUnresolved
)

func (s EntryStatus) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusResolved:
		return "resolved"
	case StatusUnresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("EntryStatus(%d)", int(s))
	}
}

// Override associates a locator with its override locator.
type Override struct {
	Locator  string
	Override string
}

type entry[S State] struct {
	locator string
	status  EntryStatus
	state   S
}

// Repository caches resource states by locator.
//
// Entries and overrides keep insertion order, which is the order they are
// checkpointed in.
//
// Thread Safety: Not thread-safe. Checkpoint and Restore must not overlap.
type Repository[S State] struct {
	factory Factory[S]
	writer  StateWriter

	entries []*entry[S]
	index   map[string]*entry[S]

	overrides     []Override
	overrideIndex map[string]string
}

// NewRepository returns an empty repository resolving through factory.
func NewRepository[S State](factory Factory[S]) *Repository[S] {
	return &Repository[S]{
		factory:       factory,
		index:         make(map[string]*entry[S]),
		overrideIndex: make(map[string]string),
	}
}

func (r *Repository[S]) log() *slog.Logger {
	return logging.For("resources")
}

// SetObjectsContext binds the document writer lookups are made for.
func (r *Repository[S]) SetObjectsContext(w StateWriter) {
	r.writer = w
}

// GetOrCreate returns the state cached for locator, resolving it on the
// first request.
//
// A locator that already has an override keeps it; a different override
// passed later is ignored. A non-empty override is recorded only when
// the locator is resolved for the first time. Failures are cached: later
// calls return ErrUnavailable without calling the factory again.
func (r *Repository[S]) GetOrCreate(locator, override string) (S, error) {
	var zero S
	if r.writer == nil {
		return zero, ErrUnconfigured
	}

	if e, ok := r.index[locator]; ok {
		if e.status == StatusUnresolved {
			return zero, fmt.Errorf("%q: %w", locator, ErrUnavailable)
		}
		return e.state, nil
	}

	effective := r.recordOverride(locator, override)
	r.log().Debug("resource cache miss",
		slog.String("locator", locator),
		slog.String("override", effective))

	state, err := r.resolve(locator, effective)
	if err != nil {
		r.insert(&entry[S]{locator: locator, status: StatusUnresolved})
		r.log().Warn("resource resolution failed",
			slog.String("locator", locator),
			slog.Any("error", err))
		return zero, fmt.Errorf("%q: %w: %w", locator, ErrUnavailable, err)
	}

	r.insert(&entry[S]{locator: locator, status: StatusResolved, state: state})
	return state, nil
}

// resolve calls the factory and rejects invalid states.
func (r *Repository[S]) resolve(locator, override string) (S, error) {
	var zero S
	state, err := r.factory.Resolve(locator, override)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrResolutionFailure, err)
	}
	if !state.IsValid() {
		state.Release()
		return zero, fmt.Errorf("%w: invalid state for %q", ErrResolutionFailure, locator)
	}
	return state, nil
}

// recordOverride returns the override to resolve locator with, storing
// override when locator has none yet.
func (r *Repository[S]) recordOverride(locator, override string) string {
	if existing, ok := r.overrideIndex[locator]; ok {
		if override != "" && override != existing {
			r.log().Warn("override ignored, locator already associated",
				slog.String("locator", locator),
				slog.String("override", override),
				slog.String("existing", existing))
		}
		return existing
	}
	if override == "" {
		return ""
	}
	r.addOverride(locator, override)
	return override
}

func (r *Repository[S]) addOverride(locator, override string) {
	r.overrides = append(r.overrides, Override{Locator: locator, Override: override})
	r.overrideIndex[locator] = override
}

func (r *Repository[S]) insert(e *entry[S]) {
	r.entries = append(r.entries, e)
	r.index[e.locator] = e
}

// reservation pairs a Resolved entry with the ID its state is written at.
type reservation[S State] struct {
	entry    *entry[S]
	objectID int
}

// Checkpoint writes the repository object at objectID and then the
// private object of every Resolved entry, in cache order.
//
// Unresolved entries are left out. The first failing state aborts the
// checkpoint; objects written before it stay in the document.
func (r *Repository[S]) Checkpoint(w StateWriter, objectID int) error {
	w.StartIndirectObject(objectID)
	w.StartDictionary()

	w.WriteKey("Type")
	w.WriteName(TypeResourceRepository)

	w.WriteKey("Overrides")
	w.StartArray()
	for _, o := range r.overrides {
		w.WriteLiteralString(o.Locator)
		w.WriteLiteralString(o.Override)
	}
	w.EndArray()

	w.WriteKey("Entries")
	w.StartArray()
	reserved := make([]reservation[S], 0, len(r.entries))
	for _, e := range r.entries {
		if e.status != StatusResolved {
			continue
		}
		id := w.AllocateObjectID()
		w.WriteLiteralString(e.locator)
		w.WriteIndirectReference(id)
		reserved = append(reserved, reservation[S]{entry: e, objectID: id})
	}
	w.EndArray()

	w.EndDictionary()
	if err := w.EndIndirectObject(); err != nil {
		return fmt.Errorf("write repository object %d: %w", objectID, err)
	}

	for _, res := range reserved {
		if err := res.entry.state.Checkpoint(w, res.objectID); err != nil {
			return fmt.Errorf("checkpoint %q at object %d: %w", res.entry.locator, res.objectID, err)
		}
	}

	r.log().Debug("repository checkpointed",
		slog.Int("object_id", objectID),
		slog.Int("entries", len(reserved)),
		slog.Int("overrides", len(r.overrides)))
	return nil
}

// Restore replaces the cache with the one checkpointed at objectID.
//
// Every current state is released first. Entries are restored in array
// order and the first failure stops the restore: entries restored before
// it stay cached, the failing one and those after it are absent.
func (r *Repository[S]) Restore(rd StateReader, objectID int) error {
	r.clear()

	snap, err := ReadSnapshot(rd, objectID)
	if err != nil {
		return err
	}

	for _, o := range snap.Overrides {
		r.addOverride(o.Locator, o.Override)
	}

	for i, se := range snap.Entries {
		if err := r.restoreEntry(rd, se); err != nil {
			r.log().Warn("repository restore failed",
				slog.String("locator", se.Locator),
				slog.Int("position", i),
				slog.Any("error", err))
			return err
		}
	}

	r.log().Debug("repository restored",
		slog.Int("object_id", objectID),
		slog.Int("entries", len(snap.Entries)))
	return nil
}

func (r *Repository[S]) restoreEntry(rd StateReader, se SnapshotEntry) error {
	state, err := r.resolve(se.Locator, r.overrideIndex[se.Locator])
	if err != nil {
		return fmt.Errorf("restore %q: %w", se.Locator, err)
	}
	if err := state.Restore(rd, se.ObjectID); err != nil {
		state.Release()
		return fmt.Errorf("restore %q from object %d: %w", se.Locator, se.ObjectID, err)
	}
	r.insert(&entry[S]{locator: se.Locator, status: StatusResolved, state: state})
	return nil
}

// Lookup reports the cache status of locator and its state when Resolved.
// It never calls the factory.
func (r *Repository[S]) Lookup(locator string) (S, EntryStatus) {
	var zero S
	e, ok := r.index[locator]
	if !ok {
		return zero, StatusAbsent
	}
	return e.state, e.status
}

// Resolved yields the Resolved entries in cache order.
func (r *Repository[S]) Resolved() iter.Seq2[string, S] {
	return func(yield func(string, S) bool) {
		for _, e := range r.entries {
			if e.status != StatusResolved {
				continue
			}
			if !yield(e.locator, e.state) {
				return
			}
		}
	}
}

// Overrides returns the override associations in table order.
func (r *Repository[S]) Overrides() []Override {
	return append([]Override(nil), r.overrides...)
}

// Len is the number of cached entries, Resolved or not.
func (r *Repository[S]) Len() int {
	return len(r.entries)
}

// Close releases every state and empties the repository.
func (r *Repository[S]) Close() {
	r.clear()
}

func (r *Repository[S]) clear() {
	for _, e := range r.entries {
		if e.status == StatusResolved {
			e.state.Release()
		}
	}
	r.entries = nil
	clear(r.index)
	r.overrides = nil
	clear(r.overrideIndex)
}
