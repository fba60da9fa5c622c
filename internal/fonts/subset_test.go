package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/gxstate/internal/fonts/fontstest"
)

func TestFontSubset(t *testing.T) {
	opts := fontstest.Default("Sub")
	opts.Widths = map[rune]uint16{'i': 250}
	font, err := ParseTTF(fontstest.Build(opts))
	require.NoError(t, err)

	subset := NewFontSubset(font)
	subset.UseString("hi hi")
	subset.UseChar('Ж')

	assert.Equal(t, []rune{' ', 'h', 'i', 'Ж'}, subset.Chars())
	assert.Equal(t, []GlyphMapping{
		{GlyphID: opts.GlyphID(' '), Char: ' '},
		{GlyphID: opts.GlyphID('h'), Char: 'h'},
		{GlyphID: opts.GlyphID('i'), Char: 'i'},
	}, subset.Glyphs())
}

func TestFontSubset_MeasureString(t *testing.T) {
	opts := fontstest.Default("Measure")
	opts.UnitsPerEm = 2000
	opts.Advance = 1000
	opts.Widths = map[rune]uint16{'i': 500}
	font, err := ParseTTF(fontstest.Build(opts))
	require.NoError(t, err)

	subset := NewFontSubset(font)
	assert.InDelta(t, 12.0, subset.MeasureString("ab", 12), 1e-9)
	assert.InDelta(t, 9.0, subset.MeasureString("ai", 12), 1e-9)
	assert.InDelta(t, 6.0, subset.MeasureString("Ж", 12), 1e-9, "glyph 0 advance")
	assert.Zero(t, subset.MeasureString("", 12))

	assert.Zero(t, NewFontSubset(&TTFFont{}).MeasureString("ab", 12))
}

func TestApplyMetrics(t *testing.T) {
	base, err := ParseTTF(fontstest.Build(fontstest.Default("Base")))
	require.NoError(t, err)

	mopts := fontstest.Default("Metrics")
	mopts.UnitsPerEm = 2000
	mopts.Advance = 1200
	mopts.Widths = map[rune]uint16{'W': 1800}
	mopts.Ascender = 1500
	mopts.Descender = -500
	mopts.LineGap = 100
	mopts.FirstChar, mopts.LastChar = 'A', 'Z'
	metrics, err := ParseTTF(fontstest.Build(mopts))
	require.NoError(t, err)
	metrics.FilePath = "/fonts/metrics.ttf"

	require.NoError(t, base.ApplyMetrics(metrics))

	w, _ := base.GlyphWidth('W')
	assert.Equal(t, uint16(900), w)
	w, _ = base.GlyphWidth('A')
	assert.Equal(t, uint16(600), w)
	w, _ = base.GlyphWidth('a')
	assert.Equal(t, uint16(500), w, "outside the metrics font")

	assert.Equal(t, int16(750), base.Ascender)
	assert.Equal(t, int16(-250), base.Descender)
	assert.Equal(t, int16(50), base.LineGap)
	assert.Equal(t, "/fonts/metrics.ttf", base.MetricsPath)
	assert.Equal(t, "Base", base.PostScriptName)
}

func TestApplyMetrics_Errors(t *testing.T) {
	base := &TTFFont{UnitsPerEm: 1000}
	assert.Error(t, base.ApplyMetrics(nil))
	assert.Error(t, base.ApplyMetrics(&TTFFont{}))
}
