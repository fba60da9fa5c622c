package writer

// PageObject describes one page dictionary.
type PageObject struct {
	ID        int
	Parent    int
	MediaBox  [4]float64
	Contents  int
	Resources *ResourceDictionary
}

// WritePage writes a page dictionary at page.ID.
//
//	<< /Type /Page /Parent N 0 R /MediaBox [0 0 w h] /Resources << .. >> /Contents N 0 R >>
func WritePage(ctx *ObjectsContext, page PageObject) error {
	ctx.StartIndirectObject(page.ID)
	ctx.StartDictionary()
	ctx.WriteKey("Type")
	ctx.WriteName("Page")
	ctx.WriteKey("Parent")
	ctx.WriteIndirectReference(page.Parent)
	ctx.WriteKey("MediaBox")
	ctx.StartArray()
	for _, v := range page.MediaBox {
		ctx.WriteReal(v)
	}
	ctx.EndArray()
	if page.Resources != nil {
		ctx.WriteKey("Resources")
		page.Resources.Write(ctx)
	}
	if page.Contents != 0 {
		ctx.WriteKey("Contents")
		ctx.WriteIndirectReference(page.Contents)
	}
	ctx.EndDictionary()
	return ctx.EndIndirectObject()
}

// WriteContentStream writes content as a stream object at id, compressed
// at the context's level.
func WriteContentStream(ctx *ObjectsContext, id int, content []byte) error {
	ctx.StartIndirectObject(id)
	ctx.StartDictionary()
	ctx.WriteCompressedStream(content)
	return ctx.EndIndirectObject()
}

// WritePagesRoot writes the flat page tree root. resources, when set, is
// inherited by every kid.
//
//	<< /Type /Pages /Kids [..] /Count n /Resources << .. >> >>
func WritePagesRoot(ctx *ObjectsContext, id int, kids []int, resources *ResourceDictionary) error {
	ctx.StartIndirectObject(id)
	ctx.StartDictionary()
	ctx.WriteKey("Type")
	ctx.WriteName("Pages")
	ctx.WriteKey("Kids")
	ctx.StartArray()
	for _, kid := range kids {
		ctx.WriteIndirectReference(kid)
	}
	ctx.EndArray()
	ctx.WriteKey("Count")
	ctx.WriteInteger(int64(len(kids)))
	if resources != nil {
		ctx.WriteKey("Resources")
		resources.Write(ctx)
	}
	ctx.EndDictionary()
	return ctx.EndIndirectObject()
}

// WriteCatalog writes the document catalog at id.
func WriteCatalog(ctx *ObjectsContext, id, pagesID int) error {
	ctx.StartIndirectObject(id)
	ctx.StartDictionary()
	ctx.WriteKey("Type")
	ctx.WriteName("Catalog")
	ctx.WriteKey("Pages")
	ctx.WriteIndirectReference(pagesID)
	ctx.EndDictionary()
	return ctx.EndIndirectObject()
}
