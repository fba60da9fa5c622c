package gxstate

import (
	"errors"
	"fmt"

	"github.com/coregx/gxstate/internal/writer"
)

// PageSize is a page's width and height in points.
type PageSize struct {
	Width  float64
	Height float64
}

// Standard page sizes.
var (
	A4     = PageSize{595, 842}
	A5     = PageSize{420, 595}
	Letter = PageSize{612, 792}
	Legal  = PageSize{612, 1008}
)

// Color is an RGB color with components in [0.0, 1.0].
type Color struct {
	R float64
	G float64
	B float64
}

// Predefined colors.
var (
	Black     = Color{0, 0, 0}
	White     = Color{1, 1, 1}
	Gray      = Color{0.5, 0.5, 0.5}
	LightGray = Color{0.9, 0.9, 0.9}
)

func (c Color) validate() error {
	if c.R < 0 || c.R > 1 || c.G < 0 || c.G > 1 || c.B < 0 || c.B > 1 {
		return ErrInvalidColor
	}
	return nil
}

// Page collects the content of one page while it is drawn. A Page is only
// valid inside the draw function passed to Session.AddPage.
type Page struct {
	session   *Session
	size      PageSize
	content   *writer.ContentStreamWriter
	resources *writer.ResourceDictionary
}

func newPage(s *Session, size PageSize) *Page {
	return &Page{
		session:   s,
		size:      size,
		content:   writer.NewContentStreamWriter(),
		resources: writer.NewResourceDictionary(),
	}
}

// Width returns the page width in points.
func (p *Page) Width() float64 { return p.size.Width }

// Height returns the page height in points.
func (p *Page) Height() float64 { return p.size.Height }

// AddText shows text in black with its baseline starting at x, y (points
// from the lower-left corner).
func (p *Page) AddText(text string, x, y float64, font *Font, size float64) error {
	return p.AddTextColor(text, x, y, font, size, Black)
}

// AddTextColor shows text in the given color. Characters the font lacks
// are shown as its missing glyph.
func (p *Page) AddTextColor(text string, x, y float64, font *Font, size float64, color Color) error {
	if font == nil {
		return errors.New("font is nil")
	}
	if font.session != p.session {
		return fmt.Errorf("font %s belongs to another session", font.Path())
	}
	if size <= 0 {
		return fmt.Errorf("font size must be positive, got %g", size)
	}
	if err := color.validate(); err != nil {
		return err
	}

	name := p.resources.AddFont(font.used.ReserveObjectID(p.session.ctx))
	glyphs := font.used.Encode(text)

	p.content.BeginText()
	p.content.SetFillColorRGB(color.R, color.G, color.B)
	p.content.SetFont(name, size)
	p.content.MoveTextPosition(x, y)
	p.content.ShowGlyphs(glyphs)
	p.content.EndText()
	return nil
}

// DrawRectFilled fills a rectangle whose lower-left corner is at x, y.
func (p *Page) DrawRectFilled(x, y, width, height float64, color Color) error {
	if width <= 0 || height <= 0 {
		return errors.New("rectangle must have positive width and height")
	}
	if err := color.validate(); err != nil {
		return err
	}
	p.content.SaveState()
	p.content.SetFillColorRGB(color.R, color.G, color.B)
	p.content.Rectangle(x, y, width, height)
	p.content.Fill()
	p.content.RestoreState()
	return nil
}
