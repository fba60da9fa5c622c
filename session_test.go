package gxstate_test

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/gxstate"
	"github.com/coregx/gxstate/internal/fonts/fontstest"
	"github.com/coregx/gxstate/internal/parser"
	"github.com/coregx/gxstate/logging"
)

const (
	serifPath   = "/fonts/Serif.ttf"
	sansPath    = "/fonts/Sans.ttf"
	metricsPath = "/fonts/Metrics.ttf"
	docPath     = "/out/doc.pdf"
)

func testFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fontstest.WriteFile(fs, serifPath, fontstest.Default("TestSerif")))
	require.NoError(t, fontstest.WriteFile(fs, sansPath, fontstest.Default("TestSans")))

	metrics := fontstest.Default("TestMetrics")
	metrics.Advance = 250
	require.NoError(t, fontstest.WriteFile(fs, metricsPath, metrics))
	require.NoError(t, fs.MkdirAll("/out", 0o755))
	return fs
}

func openFinal(t *testing.T, fs afero.Fs, path string) *parser.Reader {
	t.Helper()
	r := parser.NewReader(fs, path)
	require.NoError(t, r.Open())
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSession_SuspendResumeClose(t *testing.T) {
	fs := testFS(t)

	s, err := gxstate.Create(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)

	serif, err := s.Font(serifPath)
	require.NoError(t, err)
	err = s.AddPage(gxstate.A4, func(p *gxstate.Page) error {
		return p.AddText("Hi", 72, 770, serif, 12)
	})
	require.NoError(t, err)

	serifID := serif.ObjectID()
	require.NotZero(t, serifID)
	next := s.NextObjectID()
	require.NoError(t, s.Suspend())

	s, err = gxstate.Resume(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	assert.Equal(t, 1, s.PageCount())
	assert.Greater(t, s.NextObjectID(), next, "checkpoint objects are allocated too")

	serif, err = s.Font(serifPath)
	require.NoError(t, err)
	assert.Equal(t, serifID, serif.ObjectID(), "font object ID survives resume")
	assert.Equal(t, []rune{'H', 'i'}, serif.UsedChars())

	sans, err := s.Font(sansPath)
	require.NoError(t, err)
	err = s.AddPage(gxstate.Letter, func(p *gxstate.Page) error {
		if err := p.DrawRectFilled(0, 0, 100, 20, gxstate.LightGray); err != nil {
			return err
		}
		if err := p.AddText("again", 72, 700, serif, 12); err != nil {
			return err
		}
		return p.AddTextColor("sans", 72, 680, sans, 10, gxstate.Gray)
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	r := openFinal(t, fs, docPath)
	assert.Equal(t, 2, r.Revisions())

	catalog, err := r.Catalog()
	require.NoError(t, err)
	require.NotNil(t, catalog)

	pages, err := r.ResolveDictionary(catalog.Get("Pages"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), pages.GetInteger("Count"))

	font, err := r.ParseObject(serifID)
	require.NoError(t, err)
	fontDict, ok := font.(*parser.Dictionary)
	require.True(t, ok)
	assert.Equal(t, "Type0", fontDict.GetName("Subtype"))
	assert.Equal(t, "TestSerif", fontDict.GetName("BaseFont"))

	_, err = gxstate.Resume(docPath, gxstate.WithFS(fs))
	assert.ErrorIs(t, err, gxstate.ErrNoSessionState)
}

func TestSession_CreateLoadsFontsBeforeSuspend(t *testing.T) {
	fs := testFS(t)

	s, err := gxstate.Create(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	defer func() { _ = s.Abort() }()
	logs := logging.NewBufferedLogHandler(nil)
	logging.SetLogger(slog.New(logs))
	t.Cleanup(func() { logging.SetLogger(nil) })

	font, err := s.Font(serifPath)
	require.NoError(t, err)
	assert.Equal(t, "TestSerif", font.PostScriptName())
	assert.Zero(t, font.ObjectID(), "no page refers to the font yet")

	_, err = s.Font("/fonts/missing.ttf")
	assert.ErrorIs(t, err, gxstate.ErrUnavailable)
	assert.ErrorIs(t, err, gxstate.ErrResolutionFailure)
	_, err = s.Font("/fonts/missing.ttf")
	assert.ErrorIs(t, err, gxstate.ErrUnavailable)
	assert.NotErrorIs(t, err, gxstate.ErrResolutionFailure)

	require.NoError(t, s.AddPage(gxstate.A4, func(p *gxstate.Page) error {
		return p.AddText("ok", 10, 10, font, 8)
	}))
	assert.Equal(t, 2, font.ObjectID())

	assert.Equal(t, 1, logs.Count("resource resolution failed"))
	assert.Equal(t, 1, logs.Count("page added"))
}

func TestSession_PagesKeepTheirParent(t *testing.T) {
	fs := testFS(t)

	s, err := gxstate.Create(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	require.NoError(t, s.AddPage(gxstate.A5, nil))
	require.NoError(t, s.Suspend())

	s, err = gxstate.Resume(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	require.NoError(t, s.AddPage(gxstate.A5, nil))
	require.NoError(t, s.Close())

	r := openFinal(t, fs, docPath)
	catalog, err := r.Catalog()
	require.NoError(t, err)
	rootRef := catalog.Get("Pages")

	pages, err := r.ResolveDictionary(rootRef)
	require.NoError(t, err)
	kids, ok := pages.Get("Kids").(*parser.Array)
	require.True(t, ok)
	require.Equal(t, 2, kids.Len())
	for _, kid := range kids.Elements() {
		page, err := r.ResolveDictionary(kid)
		require.NoError(t, err)
		assert.Equal(t, "Page", page.GetName("Type"))
		assert.Equal(t, rootRef, page.Get("Parent"))
	}
}

func TestSession_FailedFontIsRetriedAfterResume(t *testing.T) {
	fs := testFS(t)
	const late = "/fonts/Late.ttf"

	s, err := gxstate.Create(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	_, err = s.Font(late)
	assert.ErrorIs(t, err, gxstate.ErrUnavailable)
	assert.ErrorIs(t, err, gxstate.ErrResolutionFailure)

	require.NoError(t, fontstest.WriteFile(fs, late, fontstest.Default("TestLate")))
	_, err = s.Font(late)
	assert.ErrorIs(t, err, gxstate.ErrUnavailable, "failures are cached")
	require.NoError(t, s.Suspend())

	s, err = gxstate.Resume(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	font, err := s.Font(late)
	require.NoError(t, err)
	assert.Equal(t, "TestLate", font.PostScriptName())
	require.NoError(t, s.Close())
}

func TestSession_MetricsOverrideSticks(t *testing.T) {
	fs := testFS(t)

	s, err := gxstate.Create(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)

	font, err := s.FontWithMetrics(serifPath, metricsPath)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, font.MeasureString("a", 10), 1e-9)

	again, err := s.Font(serifPath)
	require.NoError(t, err)
	assert.Equal(t, metricsPath, again.MetricsPath())
	require.NoError(t, s.Suspend())

	s, err = gxstate.Resume(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	font, err = s.FontWithMetrics(serifPath, sansPath)
	require.NoError(t, err)
	assert.Equal(t, metricsPath, font.MetricsPath())
	assert.InDelta(t, 2.5, font.MeasureString("a", 10), 1e-9)
	require.NoError(t, s.Abort())
}

func TestSession_ResumeWithReplacedFont(t *testing.T) {
	fs := testFS(t)

	s, err := gxstate.Create(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	_, err = s.Font(serifPath)
	require.NoError(t, err)
	require.NoError(t, s.Suspend())

	require.NoError(t, fontstest.WriteFile(fs, serifPath, fontstest.Default("SomethingElse")))
	_, err = gxstate.Resume(docPath, gxstate.WithFS(fs))
	assert.ErrorIs(t, err, gxstate.ErrMalformedState)
}

func TestSession_Closed(t *testing.T) {
	fs := testFS(t)

	s, err := gxstate.Create(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Font(serifPath)
	assert.ErrorIs(t, err, gxstate.ErrSessionClosed)
	assert.ErrorIs(t, s.AddPage(gxstate.A4, nil), gxstate.ErrSessionClosed)
	assert.ErrorIs(t, s.Suspend(), gxstate.ErrSessionClosed)
	assert.ErrorIs(t, s.Close(), gxstate.ErrSessionClosed)
	assert.NoError(t, s.Abort())
}

func TestSession_PageErrors(t *testing.T) {
	fs := testFS(t)

	s, err := gxstate.Create(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	defer func() { _ = s.Abort() }()

	other, err := gxstate.Create("/out/other.pdf", gxstate.WithFS(fs))
	require.NoError(t, err)
	defer func() { _ = other.Abort() }()
	foreign, err := other.Font(sansPath)
	require.NoError(t, err)

	font, err := s.Font(serifPath)
	require.NoError(t, err)

	tests := []struct {
		name string
		draw func(p *gxstate.Page) error
	}{
		{"nil font", func(p *gxstate.Page) error { return p.AddText("x", 0, 0, nil, 12) }},
		{"foreign font", func(p *gxstate.Page) error { return p.AddText("x", 0, 0, foreign, 12) }},
		{"zero size", func(p *gxstate.Page) error { return p.AddText("x", 0, 0, font, 0) }},
		{"bad color", func(p *gxstate.Page) error {
			return p.AddTextColor("x", 0, 0, font, 12, gxstate.Color{R: 2})
		}},
		{"empty rect", func(p *gxstate.Page) error { return p.DrawRectFilled(0, 0, 0, 10, gxstate.Black) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.AddPage(gxstate.A4, tt.draw))
		})
	}
	assert.Equal(t, 0, s.PageCount(), "failed draws add no page")

	err = s.AddPage(gxstate.PageSize{Width: -1, Height: 10}, nil)
	assert.ErrorIs(t, err, gxstate.ErrInvalidPageSize)
}

func TestSession_Options(t *testing.T) {
	fs := testFS(t)

	_, err := gxstate.Create(docPath, gxstate.WithFS(fs), gxstate.WithCompressionLevel(42))
	assert.Error(t, err)

	s, err := gxstate.Create(docPath,
		gxstate.WithFS(fs),
		gxstate.WithPDFVersion("1.4"),
		gxstate.WithCompressionLevel(0),
		gxstate.WithCompressedState(false))
	require.NoError(t, err)
	font, err := s.Font(sansPath)
	require.NoError(t, err)
	require.NoError(t, s.AddPage(gxstate.A4, func(p *gxstate.Page) error {
		return p.AddText("Hi", 10, 20, font, 12)
	}))
	require.NoError(t, s.Suspend())

	data, err := afero.ReadFile(fs, docPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "%PDF-1.4\n")
	assert.Contains(t, string(data), "/F1 12 Tf\n10 20 Td\n<0029004A> Tj\n")
	assert.Contains(t, string(data), "stream\n72 105\nendstream")
	assert.Contains(t, string(data), "/GXState ")
}

func TestSession_Logging(t *testing.T) {
	handler := logging.NewBufferedLogHandler(nil)
	logging.SetLogger(slog.New(handler))
	t.Cleanup(func() { logging.SetLogger(nil) })

	fs := testFS(t)
	s, err := gxstate.Create(docPath, gxstate.WithFS(fs))
	require.NoError(t, err)
	_, err = s.Font("/fonts/none.ttf")
	require.ErrorIs(t, err, gxstate.ErrResolutionFailure)
	_, err = s.Font("/fonts/none.ttf")
	require.ErrorIs(t, err, gxstate.ErrUnavailable)
	require.NoError(t, s.Suspend())

	assert.True(t, handler.Contains("session created"))
	assert.True(t, handler.Contains("session suspended"))
	assert.Equal(t, 1, handler.Count("resource resolution failed"))
}

func TestSession_OsFs(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()
	fontPath := filepath.Join(dir, "Serif.ttf")
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, fontstest.WriteFile(fs, fontPath, fontstest.Default("TestSerif")))

	s, err := gxstate.Create(path, gxstate.WithFS(fs))
	require.NoError(t, err)
	font, err := s.Font(fontPath)
	require.NoError(t, err)
	require.NoError(t, s.AddPage(gxstate.A4, func(p *gxstate.Page) error {
		return p.AddText("disk", 50, 50, font, 9)
	}))
	require.NoError(t, s.Suspend())

	summary, err := gxstate.Inspect(path, gxstate.WithFS(fs))
	require.NoError(t, err)
	require.Len(t, summary.Fonts, 1)
	assert.Equal(t, fontPath, summary.Fonts[0].Path)

	s, err = gxstate.Resume(path, gxstate.WithFS(fs))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	r := openFinal(t, fs, path)
	catalog, err := r.Catalog()
	require.NoError(t, err)
	assert.NotNil(t, catalog)
}
