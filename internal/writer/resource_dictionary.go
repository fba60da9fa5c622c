package writer

import "fmt"

// ResourceDictionary names the fonts a page or page tree node uses.
//
// Fonts are named F1, F2, ... in the order they are first added. Adding
// the same font object twice returns the existing name.
//
//	/Resources << /Font << /F1 5 0 R /F2 9 0 R >> /ProcSet [/PDF /Text] >>
//
// Thread Safety: Not thread-safe.
type ResourceDictionary struct {
	fontNames map[int]string
	fontOrder []int
}

// NewResourceDictionary creates an empty resource dictionary.
func NewResourceDictionary() *ResourceDictionary {
	return &ResourceDictionary{fontNames: make(map[int]string)}
}

// AddFont registers the font dictionary at objectID and returns its
// resource name.
func (rd *ResourceDictionary) AddFont(objectID int) string {
	if name, ok := rd.fontNames[objectID]; ok {
		return name
	}
	name := fmt.Sprintf("F%d", len(rd.fontOrder)+1)
	rd.fontNames[objectID] = name
	rd.fontOrder = append(rd.fontOrder, objectID)
	return name
}

// FontName returns the resource name of the font at objectID.
func (rd *ResourceDictionary) FontName(objectID int) (string, bool) {
	name, ok := rd.fontNames[objectID]
	return name, ok
}

// Fonts returns the font object IDs in naming order.
func (rd *ResourceDictionary) Fonts() []int {
	return append([]int(nil), rd.fontOrder...)
}

// HasResources reports whether any resource is registered.
func (rd *ResourceDictionary) HasResources() bool {
	return len(rd.fontOrder) > 0
}

// Write writes the dictionary as a direct object.
func (rd *ResourceDictionary) Write(ctx *ObjectsContext) {
	ctx.StartDictionary()
	if rd.HasResources() {
		ctx.WriteKey("Font")
		ctx.StartDictionary()
		for _, id := range rd.fontOrder {
			ctx.WriteKey(rd.fontNames[id])
			ctx.WriteIndirectReference(id)
		}
		ctx.EndDictionary()
	}
	ctx.WriteKey("ProcSet")
	ctx.StartArray()
	ctx.WriteName("PDF")
	ctx.WriteName("Text")
	ctx.EndArray()
	ctx.EndDictionary()
}
