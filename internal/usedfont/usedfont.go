// Package usedfont is the font state kept by a session's resource
// repository: a parsed TrueType font, the characters the document shows
// with it, and the object ID content streams refer to it by.
package usedfont

import (
	"github.com/coregx/gxstate/internal/fonts"
	"github.com/coregx/gxstate/internal/writer"
)

// IDAllocator hands out document object IDs.
type IDAllocator interface {
	AllocateObjectID() int
}

// UsedFont is one font used by a document. It implements resources.State.
//
// The font object ID is reserved the first time content refers to the
// font and stays fixed across suspend and resume; the font dictionary
// itself is written only when the document is closed.
type UsedFont struct {
	filePath    string
	metricsPath string
	font        *fonts.TTFFont
	subset      *fonts.FontSubset
	objectID    int
	cfg         Config
}

// Config controls how font state is checkpointed.
type Config struct {
	// CompressState flate-encodes the /Chars stream.
	CompressState bool
	Level         writer.CompressionLevel
}

// DefaultConfig compresses state at the default level.
func DefaultConfig() Config {
	return Config{CompressState: true, Level: writer.DefaultCompression}
}

func newUsedFont(filePath, metricsPath string, font *fonts.TTFFont, cfg Config) *UsedFont {
	return &UsedFont{
		filePath:    filePath,
		metricsPath: metricsPath,
		font:        font,
		subset:      fonts.NewFontSubset(font),
		cfg:         cfg,
	}
}

// IsValid reports whether the font parsed into something usable.
func (u *UsedFont) IsValid() bool {
	return u.font != nil && u.font.UnitsPerEm > 0 && len(u.font.CharToGlyph) > 0
}

// Release drops the parsed font.
func (u *UsedFont) Release() {
	u.font = nil
	u.subset = nil
}

// FilePath is the font file the state was resolved from.
func (u *UsedFont) FilePath() string { return u.filePath }

// MetricsPath is the metrics override font, or "".
func (u *UsedFont) MetricsPath() string { return u.metricsPath }

// Font returns the parsed font.
func (u *UsedFont) Font() *fonts.TTFFont { return u.font }

// PostScriptName is the name the font is embedded under.
func (u *UsedFont) PostScriptName() string { return fonts.FontName(u.font) }

// UnitsPerEm is the design grid size of the font.
func (u *UsedFont) UnitsPerEm() uint16 { return u.font.UnitsPerEm }

// ObjectID is the reserved font dictionary ID, or 0 when none was
// reserved yet.
func (u *UsedFont) ObjectID() int { return u.objectID }

// ReserveObjectID returns the font dictionary ID, allocating it from a
// on first use.
func (u *UsedFont) ReserveObjectID(a IDAllocator) int {
	if u.objectID == 0 {
		u.objectID = a.AllocateObjectID()
	}
	return u.objectID
}

// UseString records the characters of text as shown.
func (u *UsedFont) UseString(text string) {
	u.subset.UseString(text)
}

// Encode records text as shown and returns its glyph IDs. Characters the
// font lacks map to glyph 0.
func (u *UsedFont) Encode(text string) []uint16 {
	u.subset.UseString(text)
	glyphs := make([]uint16, 0, len(text))
	for _, ch := range text {
		glyphs = append(glyphs, u.font.CharToGlyph[ch])
	}
	return glyphs
}

// MeasureString returns the width of text at size points.
func (u *UsedFont) MeasureString(text string, size float64) float64 {
	return u.subset.MeasureString(text, size)
}

// UsedChars returns the recorded characters in code point order.
func (u *UsedFont) UsedChars() []rune {
	return u.subset.Chars()
}

// WriteDefinition writes the embedded font at the reserved ID, reserving
// it now if content never referred to the font.
func (u *UsedFont) WriteDefinition(ctx *writer.ObjectsContext) (*writer.EmbeddedFontRefs, error) {
	id := u.ReserveObjectID(ctx)
	return writer.NewTrueTypeFontWriter(u.subset).WriteFont(ctx, id)
}
