package gxstate

import (
	"fmt"

	"github.com/coregx/gxstate/internal/parser"
	"github.com/coregx/gxstate/internal/resources"
	"github.com/coregx/gxstate/internal/usedfont"
)

// StateSummary describes the checkpoint of a suspended document.
type StateSummary struct {
	Path          string
	Version       string
	Revisions     int
	NextObjectID  int
	StateObjectID int
	PagesObjectID int
	Pages         int

	// Overrides lists the metrics fonts in the order they were first used.
	Overrides []FontOverride

	// Fonts lists the checkpointed fonts in cache order.
	Fonts []FontState
}

// FontOverride associates a font with its metrics font.
type FontOverride struct {
	Path        string
	MetricsPath string
}

// FontState is one checkpointed font.
type FontState struct {
	Path           string
	StateObjectID  int
	MetricsPath    string
	PostScriptName string
	FontObjectID   int
	Chars          int
}

// Inspect reads the checkpoint of the suspended document at path. Font
// files are not opened.
func Inspect(path string, opts ...Option) (*StateSummary, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	r := parser.NewReader(cfg.fs, path)
	if err := r.Open(); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	summary, err := inspect(r)
	if err = closeAll(err, r); err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}
	summary.Path = path
	return summary, nil
}

func inspect(r *parser.Reader) (*StateSummary, error) {
	ss, err := readSessionState(r)
	if err != nil {
		return nil, err
	}
	snap, err := resources.ReadSnapshot(r, ss.usedFontsID)
	if err != nil {
		return nil, err
	}

	summary := &StateSummary{
		Version:       r.Version(),
		Revisions:     r.Revisions(),
		NextObjectID:  r.Size(),
		StateObjectID: ss.objectID,
		PagesObjectID: ss.pagesID,
		Pages:         len(ss.kids),
	}
	for _, o := range snap.Overrides {
		summary.Overrides = append(summary.Overrides, FontOverride{Path: o.Locator, MetricsPath: o.Override})
	}
	for _, e := range snap.Entries {
		info, err := usedfont.ReadStateInfo(r, e.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("font %q: %w", e.Locator, err)
		}
		summary.Fonts = append(summary.Fonts, FontState{
			Path:           e.Locator,
			StateObjectID:  e.ObjectID,
			MetricsPath:    info.MetricsPath,
			PostScriptName: info.PostScriptName,
			FontObjectID:   info.FontObjectID,
			Chars:          len(info.Chars),
		})
	}
	return summary, nil
}
