package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/juju/errgo"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/xlab/treeprint"

	"github.com/coregx/gxstate"
	"github.com/coregx/gxstate/logging"
)

// InspectCommand prints the checkpointed session state of a document.
type InspectCommand struct {
	Ui cli.Ui
	FS afero.Fs

	// LogOutput receives -verbose logs; nil means stderr.
	LogOutput io.Writer
}

func (c *InspectCommand) Run(args []string) int {
	var verbose bool
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&verbose, "verbose", false, "log while reading and print error details")
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return cli.RunResultHelp
	}
	if fs.NArg() != 1 {
		c.Ui.Error("inspect expects exactly one document")
		return cli.RunResultHelp
	}
	path := fs.Arg(0)

	if verbose {
		out := c.LogOutput
		if out == nil {
			out = os.Stderr
		}
		logging.SetLogger(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer logging.SetLogger(nil)
	}

	summary, err := gxstate.Inspect(path, gxstate.WithFS(c.FS))
	if err != nil {
		if verbose {
			c.Ui.Error(errgo.Details(err))
		}
		c.Ui.Error(fmt.Sprintf("Error inspecting %s: %s", path, err))
		return 1
	}

	c.Ui.Output(renderSummary(summary))
	return 0
}

func renderSummary(s *gxstate.StateSummary) string {
	tree := treeprint.NewWithRoot(s.Path)
	tree.AddNode(fmt.Sprintf("version: %s", s.Version))
	tree.AddNode(fmt.Sprintf("revisions: %d", s.Revisions))
	tree.AddNode(fmt.Sprintf("next object ID: %d", s.NextObjectID))
	tree.AddNode(fmt.Sprintf("session state: object %d", s.StateObjectID))
	tree.AddNode(fmt.Sprintf("pages: %d (root object %d)", s.Pages, s.PagesObjectID))

	if len(s.Overrides) > 0 {
		overrides := tree.AddBranch("overrides")
		for _, o := range s.Overrides {
			overrides.AddNode(fmt.Sprintf("%s -> %s", o.Path, o.MetricsPath))
		}
	}

	fonts := tree.AddBranch(fmt.Sprintf("fonts: %d", len(s.Fonts)))
	for _, f := range s.Fonts {
		font := fonts.AddBranch(fmt.Sprintf("%s (state object %d)", f.Path, f.StateObjectID))
		font.AddNode(fmt.Sprintf("PostScript name: %s", f.PostScriptName))
		if f.MetricsPath != "" {
			font.AddNode(fmt.Sprintf("metrics: %s", f.MetricsPath))
		}
		if f.FontObjectID != 0 {
			font.AddNode(fmt.Sprintf("font object: %d", f.FontObjectID))
		} else {
			font.AddNode("font object: not reserved")
		}
		font.AddNode(fmt.Sprintf("used characters: %d", f.Chars))
	}
	return strings.TrimSuffix(tree.String(), "\n")
}

func (c *InspectCommand) Help() string {
	return strings.TrimSpace(inspectCommandHelp)
}

func (c *InspectCommand) Synopsis() string {
	return "Show the session state checkpointed in a suspended document"
}

const inspectCommandHelp = `
Usage: gxstate inspect [options] FILE

  Prints the session state a suspended document carries: the next object
  ID, the page tree, the metrics font overrides and every checkpointed
  font with its font object ID and used character count. Font files are
  not opened.

Options:

  -verbose    Log while reading the document and print error details.
`
