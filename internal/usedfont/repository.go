package usedfont

import (
	"fmt"

	"github.com/coregx/gxstate/internal/resources"
	"github.com/coregx/gxstate/internal/writer"
)

// Repository is the font cache of a session.
type Repository struct {
	*resources.Repository[*UsedFont]
}

// NewRepository returns an empty font repository loading through factory.
func NewRepository(factory *Factory) *Repository {
	return &Repository{Repository: resources.NewRepository[*UsedFont](factory)}
}

// WriteUsedFontsDefinitions embeds every resolved font, in cache order.
// The first failure stops the loop.
func (r *Repository) WriteUsedFontsDefinitions(ctx *writer.ObjectsContext) error {
	for path, font := range r.Resolved() {
		if _, err := font.WriteDefinition(ctx); err != nil {
			return fmt.Errorf("write font %s: %w", path, err)
		}
	}
	return nil
}

// ResourceDictionary names every resolved font, reserving font object
// IDs as needed.
func (r *Repository) ResourceDictionary(a IDAllocator) *writer.ResourceDictionary {
	rd := writer.NewResourceDictionary()
	for _, font := range r.Resolved() {
		rd.AddFont(font.ReserveObjectID(a))
	}
	return rd
}
