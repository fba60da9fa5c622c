package gxstate

import "github.com/coregx/gxstate/internal/usedfont"

// Font is a TrueType font of a session. Text shown with it is recorded so
// the font can be embedded when the document is closed.
type Font struct {
	session *Session
	used    *usedfont.UsedFont
}

// Path is the font file.
func (f *Font) Path() string { return f.used.FilePath() }

// MetricsPath is the font the advances and vertical metrics come from, or
// "" when they come from the font itself.
func (f *Font) MetricsPath() string { return f.used.MetricsPath() }

// PostScriptName is the name the font is embedded under.
func (f *Font) PostScriptName() string { return f.used.PostScriptName() }

// UnitsPerEm returns the units per em of the font.
func (f *Font) UnitsPerEm() uint16 { return f.used.UnitsPerEm() }

// ObjectID is the object ID of the font dictionary, or 0 if no page has
// used the font yet.
func (f *Font) ObjectID() int { return f.used.ObjectID() }

// UsedChars returns the characters shown with the font so far, including
// those shown before the session was last suspended.
func (f *Font) UsedChars() []rune { return f.used.UsedChars() }

// MeasureString returns the width of text in points at the given size.
func (f *Font) MeasureString(text string, size float64) float64 {
	return f.used.MeasureString(text, size)
}
