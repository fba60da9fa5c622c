package resources

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/gxstate/internal/parser"
	"github.com/coregx/gxstate/internal/writer"
)

var errNotFound = errors.New("no such resource")

// fakeState is a resource whose private state is a use counter plus a
// note kept in a nested object.
type fakeState struct {
	factory  *fakeFactory
	locator  string
	override string
	valid    bool
	released bool

	Uses int
	Note string
}

func (s *fakeState) IsValid() bool { return s.valid }

func (s *fakeState) Derived() string { return s.locator + "|" + s.override }

func (s *fakeState) Checkpoint(w StateWriter, objectID int) error {
	if s.factory.failCheckpoint[s.locator] {
		return fmt.Errorf("checkpoint %s refused", s.locator)
	}
	noteID := w.AllocateObjectID()

	w.StartIndirectObject(objectID)
	w.StartDictionary()
	w.WriteKey("Type")
	w.WriteName("FakeState")
	w.WriteKey("Uses")
	w.WriteInteger(int64(s.Uses))
	w.WriteKey("Note")
	w.WriteIndirectReference(noteID)
	w.EndDictionary()
	if err := w.EndIndirectObject(); err != nil {
		return err
	}

	w.StartIndirectObject(noteID)
	w.WriteLiteralString(s.Note)
	return w.EndIndirectObject()
}

func (s *fakeState) Restore(r StateReader, objectID int) error {
	obj, err := r.ParseObject(objectID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReferenceUnresolved, err)
	}
	dict, ok := obj.(*parser.Dictionary)
	if !ok || dict.GetName("Type") != "FakeState" {
		return fmt.Errorf("%w: object %d", ErrMalformedState, objectID)
	}
	note, err := r.Resolve(dict.Get("Note"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReferenceUnresolved, err)
	}
	str, ok := note.(*parser.String)
	if !ok {
		return fmt.Errorf("%w: note", ErrMalformedState)
	}
	s.Uses = int(dict.GetInteger("Uses"))
	s.Note, err = str.Text()
	return err
}

func (s *fakeState) Release() {
	s.released = true
	s.factory.released = append(s.factory.released, s.locator)
}

type fakeFactory struct {
	calls          []string
	fail           map[string]bool
	invalid        map[string]bool
	failCheckpoint map[string]bool
	released       []string
	created        []*fakeState
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		fail:           make(map[string]bool),
		invalid:        make(map[string]bool),
		failCheckpoint: make(map[string]bool),
	}
}

func (f *fakeFactory) Resolve(locator, override string) (*fakeState, error) {
	f.calls = append(f.calls, locator+"|"+override)
	if f.fail[locator] {
		return nil, fmt.Errorf("%s: %w", locator, errNotFound)
	}
	s := &fakeState{factory: f, locator: locator, override: override, valid: !f.invalid[locator]}
	f.created = append(f.created, s)
	return s, nil
}

// testDoc is an in-memory document written through the real writer.
type testDoc struct {
	buf bytes.Buffer
	ctx *writer.ObjectsContext
}

func newTestDoc() *testDoc {
	d := &testDoc{}
	d.ctx = writer.NewObjectsContext(&d.buf, 0, writer.NewIndirectObjectsRegistry())
	d.ctx.WriteHeader("1.7")
	return d
}

// reader finishes the revision and opens the result.
func (d *testDoc) reader(t *testing.T) *parser.Reader {
	t.Helper()
	_, err := d.ctx.WriteXRefAndTrailer(writer.Trailer{Size: d.ctx.Registry().NextObjectID()})
	require.NoError(t, err)
	require.NoError(t, d.ctx.Flush())
	r := parser.NewReaderFromBytes(d.buf.Bytes())
	require.NoError(t, r.Open())
	return r
}

// rawDoc builds a one-revision document from object bodies.
func rawDoc(t *testing.T, objects map[int]string) *parser.Reader {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	nums := make([]int, 0, len(objects))
	for n := range objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	offsets := make(map[int]int)
	for _, n := range nums {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, objects[n])
	}
	xref := buf.Len()
	buf.WriteString("xref\n0 1\n0000000000 65535 f \n")
	for _, n := range nums {
		fmt.Fprintf(&buf, "%d 1\n%010d 00000 n \n", n, offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d >>\nstartxref\n%d\n%%%%EOF\n", nums[len(nums)-1]+1, xref)

	r := parser.NewReaderFromBytes(buf.Bytes())
	require.NoError(t, r.Open())
	return r
}
