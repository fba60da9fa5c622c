package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/gxstate/internal/fonts"
	"github.com/coregx/gxstate/internal/fonts/fontstest"
	"github.com/coregx/gxstate/internal/parser"
)

func TestTrueTypeFontWriter_WriteFont(t *testing.T) {
	opts := fontstest.Default("TestFont-Regular")
	opts.Widths = map[rune]uint16{'H': 700, 'l': 300}
	data := fontstest.Build(opts)
	ttf, err := fonts.ParseTTF(data)
	require.NoError(t, err)

	subset := fonts.NewFontSubset(ttf)
	subset.UseString("Hello")

	ctx, buf := newTestContext()
	ctx.WriteHeader("1.7")
	fontID := ctx.AllocateObjectID()

	refs, err := NewTrueTypeFontWriter(subset).WriteFont(ctx, fontID)
	require.NoError(t, err)
	assert.Equal(t, &EmbeddedFontRefs{
		FontObjNum:       1,
		CIDFontObjNum:    2,
		DescriptorObjNum: 3,
		ToUnicodeObjNum:  4,
		FontFileObjNum:   5,
	}, refs)

	_, err = ctx.WriteXRefAndTrailer(Trailer{Size: ctx.Registry().NextObjectID()})
	require.NoError(t, err)
	require.NoError(t, ctx.Flush())

	r := parser.NewReaderFromBytes(buf.Bytes())
	require.NoError(t, r.Open())

	font := parseDict(t, r, refs.FontObjNum)
	assert.Equal(t, "Type0", font.GetName("Subtype"))
	assert.Equal(t, "TestFont-Regular", font.GetName("BaseFont"))
	assert.Equal(t, "Identity-H", font.GetName("Encoding"))
	assert.Equal(t, parser.NewIndirectReference(refs.ToUnicodeObjNum, 0), font.Get("ToUnicode"))

	cid := parseDict(t, r, refs.CIDFontObjNum)
	assert.Equal(t, "CIDFontType2", cid.GetName("Subtype"))
	assert.Equal(t, int64(500), cid.GetInteger("DW"))
	// H=41, e=70, l=77, o=80: runs [41] [70] [77] [80].
	assert.Equal(t, "[41 [700] 70 [500] 77 [300] 80 [500]]", cid.Get("W").String())

	descriptor := parseDict(t, r, refs.DescriptorObjNum)
	assert.Equal(t, "TestFont-Regular", descriptor.GetName("FontName"))
	assert.Equal(t, int64(800), descriptor.GetInteger("Ascent"))
	assert.Equal(t, parser.NewIndirectReference(refs.FontFileObjNum, 0), descriptor.Get("FontFile2"))

	toUnicode := parseStream(t, r, refs.ToUnicodeObjNum)
	assert.Contains(t, toUnicode, "<0029> <0048>")

	obj, err := r.ParseObject(refs.FontFileObjNum)
	require.NoError(t, err)
	stream := obj.(*parser.Stream)
	assert.Equal(t, int64(len(data)), stream.Dictionary.GetInteger("Length1"))
	program, err := stream.Decode()
	require.NoError(t, err)
	assert.Equal(t, data, program)
}

func TestTrueTypeFontWriter_ConsecutiveGlyphRuns(t *testing.T) {
	ttf, err := fonts.ParseTTF(fontstest.Build(fontstest.Default("Runs")))
	require.NoError(t, err)
	subset := fonts.NewFontSubset(ttf)
	subset.UseString("abcx")

	ctx, buf := newTestContext()
	NewTrueTypeFontWriter(subset).writeWidths(ctx)
	require.NoError(t, ctx.Flush())
	assert.Equal(t, "[66 [500 500 500] 89 [500]]", buf.String())
}

func TestTrueTypeFontWriter_MetricsOverride(t *testing.T) {
	ttf, err := fonts.ParseTTF(fontstest.Build(fontstest.Default("Base")))
	require.NoError(t, err)
	mopts := fontstest.Default("Metrics")
	mopts.Advance = 640
	metrics, err := fonts.ParseTTF(fontstest.Build(mopts))
	require.NoError(t, err)
	require.NoError(t, ttf.ApplyMetrics(metrics))

	subset := fonts.NewFontSubset(ttf)
	subset.UseString("a")

	ctx, buf := newTestContext()
	NewTrueTypeFontWriter(subset).writeWidths(ctx)
	require.NoError(t, ctx.Flush())
	assert.Equal(t, "[66 [640]]", buf.String())
}

func TestTrueTypeFontWriter_WriteError(t *testing.T) {
	ttf, err := fonts.ParseTTF(fontstest.Build(fontstest.Default("Err")))
	require.NoError(t, err)

	ctx, _ := newTestContext()
	_, err = NewTrueTypeFontWriter(fonts.NewFontSubset(ttf)).WriteFont(ctx, 42)
	assert.ErrorIs(t, err, ErrObjectNotAllocated)
	assert.ErrorContains(t, err, "Type0 font of Err")
}

func parseDict(t *testing.T, r *parser.Reader, id int) *parser.Dictionary {
	t.Helper()
	obj, err := r.ParseObject(id)
	require.NoError(t, err)
	dict, ok := obj.(*parser.Dictionary)
	require.True(t, ok, "object %d is %T", id, obj)
	return dict
}

func parseStream(t *testing.T, r *parser.Reader, id int) string {
	t.Helper()
	obj, err := r.ParseObject(id)
	require.NoError(t, err)
	data, err := obj.(*parser.Stream).Decode()
	require.NoError(t, err)
	return string(data)
}
