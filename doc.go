// Package gxstate writes PDF documents that can be suspended and resumed
// across processes.
//
// A Session builds a document incrementally. Suspend checkpoints the
// session's font cache into the document itself, ends the revision and
// closes the file; Resume reads that checkpoint back in a later process and
// continues appending, keeping every object ID handed out before. Close
// finishes the document: fonts are embedded, the page tree and catalog
// are written.
//
// Example:
//
//	s, err := gxstate.Create("report.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	font, err := s.Font("fonts/NotoSans-Regular.ttf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = s.AddPage(gxstate.A4, func(p *gxstate.Page) error {
//	    return p.AddText("Part one", 72, 770, font, 14)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Suspend(); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Later, possibly in another process:
//	s, err = gxstate.Resume("report.pdf")
//	...
//	err = s.Close()
//
// A Session is not safe for concurrent use.
package gxstate
