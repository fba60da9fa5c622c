package gxstate

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/coregx/gxstate/internal/parser"
	"github.com/coregx/gxstate/internal/usedfont"
	"github.com/coregx/gxstate/internal/writer"
	"github.com/coregx/gxstate/logging"
)

// Keys of the session state object and the trailer entry pointing to it.
const (
	TypeSessionState = "GXSessionState"
	TrailerStateKey  = "GXState"
)

// Session writes one document. Create starts a new document, Resume
// continues a suspended one.
type Session struct {
	path string
	cfg  *config

	file  afero.File
	ctx   *writer.ObjectsContext
	fonts *usedfont.Repository

	// pagesID is the page tree root, allocated when the document was
	// created so pages can name their parent before it is written.
	pagesID int
	kids    []int

	prev     int64
	fileID   []byte
	revision int
	closed   bool
}

// Create starts a new document at path, truncating any existing file.
func Create(path string, opts ...Option) (*Session, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	file, err := cfg.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	id := uuid.New()
	fonts := usedfont.NewRepository(usedfont.NewFactory(cfg.fs, cfg.fontConfig()))
	s := newSession(path, cfg, file, 0, writer.NewIndirectObjectsRegistry(), fonts)
	s.fileID = id[:]
	s.ctx.WriteHeader(cfg.version)
	s.pagesID = s.ctx.AllocateObjectID()

	s.log().Info("session created",
		slog.String("path", path),
		slog.String("version", cfg.version))
	return s, nil
}

// newSession binds fonts to a writer appending to file at offset base.
func newSession(path string, cfg *config, file afero.File, base int64, registry *writer.IndirectObjectsRegistry, fonts *usedfont.Repository) *Session {
	ctx := writer.NewObjectsContext(file, base, registry)
	ctx.SetCompressionLevel(cfg.level)
	fonts.SetObjectsContext(ctx)
	return &Session{
		path:  path,
		cfg:   cfg,
		file:  file,
		ctx:   ctx,
		fonts: fonts,
	}
}

func (s *Session) log() *slog.Logger {
	return logging.For("session")
}

// Resume continues the document at path, suspended by an earlier
// session. Fonts are restored from the checkpoint, keeping their object
// IDs and used characters; new objects are appended as a new revision.
//
// A document that was closed, or never written by a session, fails with
// ErrNoSessionState.
func Resume(path string, opts ...Option) (*Session, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	r := parser.NewReader(cfg.fs, path)
	if err := r.Open(); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	state, restoreErr := restoreSession(r, cfg)
	if err := closeAll(restoreErr, r); err != nil {
		if state != nil {
			state.fonts.Close()
		}
		return nil, fmt.Errorf("resume %s: %w", path, err)
	}

	file, err := cfg.fs.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		state.fonts.Close()
		return nil, fmt.Errorf("open %s for append: %w", path, err)
	}
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		state.fonts.Close()
		return nil, closeAll(fmt.Errorf("seek %s: %w", path, err), file)
	}

	registry := writer.NewIndirectObjectsRegistry()
	if err := registry.SeedNextObjectID(state.size); err != nil {
		state.fonts.Close()
		return nil, closeAll(err, file)
	}

	s := newSession(path, cfg, file, end, registry, state.fonts)
	s.pagesID = state.pagesID
	s.kids = state.kids
	s.prev = state.startXRef
	s.fileID = state.fileID
	s.revision = state.revisions

	s.log().Info("session resumed",
		slog.String("path", path),
		slog.Int("next_object_id", state.size),
		slog.Int("fonts", s.fonts.Len()),
		slog.Int("pages", len(s.kids)))
	return s, nil
}

// resumedState is what Resume takes over from the suspended document.
type resumedState struct {
	sessionState
	fonts     *usedfont.Repository
	size      int
	startXRef int64
	fileID    []byte
	revisions int
}

func restoreSession(r *parser.Reader, cfg *config) (*resumedState, error) {
	ss, err := readSessionState(r)
	if err != nil {
		return nil, err
	}

	st := &resumedState{
		sessionState: *ss,
		fonts:        usedfont.NewRepository(usedfont.NewFactory(cfg.fs, cfg.fontConfig())),
		size:         r.Size(),
		startXRef:    r.StartXRef(),
		fileID:       trailerFileID(r.Trailer()),
		revisions:    r.Revisions(),
	}
	if err := st.fonts.Restore(r, ss.usedFontsID); err != nil {
		return st, fmt.Errorf("restore fonts: %w", err)
	}
	return st, nil
}

// sessionState is the content of the session state object:
//
//	<< /Type /GXSessionState /UsedFonts R /Pages R /Kids [R ...] >>
type sessionState struct {
	objectID    int
	usedFontsID int
	pagesID     int
	kids        []int
}

func readSessionState(r *parser.Reader) (*sessionState, error) {
	ref, ok := r.Trailer().Get(TrailerStateKey).(*parser.IndirectReference)
	if !ok {
		return nil, ErrNoSessionState
	}

	obj, err := r.ParseObject(ref.ObjectNumber)
	if err != nil {
		return nil, fmt.Errorf("session state %s: %w: %w", ref, ErrReferenceUnresolved, err)
	}
	dict, ok := obj.(*parser.Dictionary)
	if !ok || dict.GetName("Type") != TypeSessionState {
		return nil, fmt.Errorf("session state %s: %w", ref, ErrMalformedState)
	}

	ss := &sessionState{objectID: ref.ObjectNumber}
	fontsRef, ok := dict.Get("UsedFonts").(*parser.IndirectReference)
	if !ok {
		return nil, fmt.Errorf("session state %s: %w: /UsedFonts is not a reference", ref, ErrMalformedState)
	}
	ss.usedFontsID = fontsRef.ObjectNumber

	pagesRef, ok := dict.Get("Pages").(*parser.IndirectReference)
	if !ok {
		return nil, fmt.Errorf("session state %s: %w: /Pages is not a reference", ref, ErrMalformedState)
	}
	ss.pagesID = pagesRef.ObjectNumber

	kids, ok := dict.Get("Kids").(*parser.Array)
	if !ok {
		return nil, fmt.Errorf("session state %s: %w: /Kids is not an array", ref, ErrMalformedState)
	}
	for _, kid := range kids.Elements() {
		kidRef, ok := kid.(*parser.IndirectReference)
		if !ok {
			return nil, fmt.Errorf("session state %s: %w: page %s is not a reference", ref, ErrMalformedState, kid)
		}
		ss.kids = append(ss.kids, kidRef.ObjectNumber)
	}
	return ss, nil
}

// trailerFileID returns the permanent half of the trailer /ID, or a new
// one when the document has none.
func trailerFileID(trailer *parser.Dictionary) []byte {
	if ids, ok := trailer.Get("ID").(*parser.Array); ok {
		if first, ok := ids.Get(0).(*parser.String); ok && first.Value() != "" {
			return []byte(first.Value())
		}
	}
	id := uuid.New()
	return id[:]
}

// Path is the document file.
func (s *Session) Path() string { return s.path }

// NextObjectID is the ID the next allocated object will get.
func (s *Session) NextObjectID() int { return s.ctx.Registry().NextObjectID() }

// PageCount is the number of pages added so far, across suspends.
func (s *Session) PageCount() int { return len(s.kids) }

// Font returns the font at path, loading it on first use.
//
// A font that failed to load keeps failing with ErrUnavailable until the
// session is suspended and resumed.
func (s *Session) Font(path string) (*Font, error) {
	return s.FontWithMetrics(path, "")
}

// FontWithMetrics is Font with advances and vertical metrics taken from
// the font at metricsPath. The first metrics path given for a font sticks,
// across suspends; later ones are ignored.
func (s *Session) FontWithMetrics(path, metricsPath string) (*Font, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	used, err := s.fonts.GetOrCreate(path, metricsPath)
	if err != nil {
		return nil, err
	}
	return &Font{session: s, used: used}, nil
}

// AddPage adds a page of the given size, drawn by draw. The page is
// written as soon as draw returns without error; a failing draw adds no
// page.
func (s *Session) AddPage(size PageSize, draw func(p *Page) error) error {
	if s.closed {
		return ErrSessionClosed
	}
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("%w: %gx%g", ErrInvalidPageSize, size.Width, size.Height)
	}

	page := newPage(s, size)
	if draw != nil {
		if err := draw(page); err != nil {
			return err
		}
	}

	contentID := s.ctx.AllocateObjectID()
	if err := writer.WriteContentStream(s.ctx, contentID, page.content.Bytes()); err != nil {
		return fmt.Errorf("write page content: %w", err)
	}
	pageID := s.ctx.AllocateObjectID()
	err := writer.WritePage(s.ctx, writer.PageObject{
		ID:        pageID,
		Parent:    s.pagesID,
		MediaBox:  [4]float64{0, 0, size.Width, size.Height},
		Contents:  contentID,
		Resources: page.resources,
	})
	if err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	s.kids = append(s.kids, pageID)

	s.log().Debug("page added", slog.Int("object_id", pageID), slog.Int("page", len(s.kids)))
	return nil
}

// Suspend checkpoints the session into the document, ends the revision
// and closes the file. The session cannot be used afterwards; continue
// with Resume.
func (s *Session) Suspend() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true

	stateID := s.ctx.AllocateObjectID()
	fontsID := s.ctx.AllocateObjectID()

	err := s.fonts.Checkpoint(s.ctx, fontsID)
	if err == nil {
		err = s.writeSessionState(stateID, fontsID)
	}
	if err == nil {
		err = s.endRevision(writer.Trailer{
			Extra: []writer.TrailerEntry{{Key: TrailerStateKey, ObjectID: stateID}},
		})
	}
	s.fonts.Close()
	if err = closeAll(err, s.file); err != nil {
		return fmt.Errorf("suspend %s: %w", s.path, err)
	}

	s.log().Info("session suspended",
		slog.String("path", s.path),
		slog.Int("state_object_id", stateID),
		slog.Int("next_object_id", s.NextObjectID()))
	return nil
}

func (s *Session) writeSessionState(stateID, fontsID int) error {
	s.ctx.StartIndirectObject(stateID)
	s.ctx.StartDictionary()
	s.ctx.WriteKey("Type")
	s.ctx.WriteName(TypeSessionState)
	s.ctx.WriteKey("UsedFonts")
	s.ctx.WriteIndirectReference(fontsID)
	s.ctx.WriteKey("Pages")
	s.ctx.WriteIndirectReference(s.pagesID)
	s.ctx.WriteKey("Kids")
	s.ctx.StartArray()
	for _, kid := range s.kids {
		s.ctx.WriteIndirectReference(kid)
	}
	s.ctx.EndArray()
	s.ctx.EndDictionary()
	if err := s.ctx.EndIndirectObject(); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}

// endRevision writes the xref section and trailer of the objects written
// since the session started, then flushes.
func (s *Session) endRevision(t writer.Trailer) error {
	revisionID := uuid.New()
	t.Size = s.NextObjectID()
	t.Prev = s.prev
	t.ID = [2][]byte{s.fileID, revisionID[:]}
	if s.prev == 0 {
		t.ID[1] = s.fileID
	}

	xref, err := s.ctx.WriteXRefAndTrailer(t)
	if err != nil {
		return err
	}
	if err := s.ctx.Flush(); err != nil {
		return err
	}
	s.prev = xref
	s.revision++
	return nil
}

// Close finishes the document: every font is embedded at the object ID
// its pages refer to, then the page tree, the catalog and the final
// trailer are written and the file is closed.
func (s *Session) Close() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true

	rd := s.fonts.ResourceDictionary(s.ctx)
	err := s.fonts.WriteUsedFontsDefinitions(s.ctx)
	if err == nil {
		err = writer.WritePagesRoot(s.ctx, s.pagesID, s.kids, rd)
	}
	catalogID := s.ctx.AllocateObjectID()
	if err == nil {
		err = writer.WriteCatalog(s.ctx, catalogID, s.pagesID)
	}
	if err == nil {
		err = s.endRevision(writer.Trailer{Root: catalogID})
	}
	s.fonts.Close()
	if err = closeAll(err, s.file); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}

	s.log().Info("session closed",
		slog.String("path", s.path),
		slog.Int("pages", len(s.kids)),
		slog.Int("revisions", s.revision))
	return nil
}

// Abort closes the file without finishing the revision. Whatever was
// written so far stays in the file.
func (s *Session) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.fonts.Close()
	return closeAll(s.ctx.Flush(), s.file)
}

// closeAll closes every closer, combining err with their errors.
func closeAll(err error, closers ...io.Closer) error {
	var result *multierror.Error
	if err != nil {
		result = multierror.Append(result, err)
	}
	for _, c := range closers {
		if cerr := c.Close(); cerr != nil {
			result = multierror.Append(result, cerr)
		}
	}
	if result == nil {
		return nil
	}
	if len(result.Errors) == 1 {
		return result.Errors[0]
	}
	return result
}
