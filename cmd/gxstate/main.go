// Command gxstate inspects documents written by suspended gxstate
// sessions.
package main

import (
	"os"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
)

const binName = "gxstate"

func main() {
	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	os.Exit(realMain(os.Args[1:], ui, afero.NewOsFs()))
}

func realMain(args []string, ui cli.Ui, fs afero.Fs) int {
	runner := &cli.CLI{
		Name: binName,
		Args: args,
		Commands: map[string]cli.CommandFactory{
			"inspect": func() (cli.Command, error) {
				return &InspectCommand{Ui: ui, FS: fs}, nil
			},
		},
		HelpFunc:   cli.BasicHelpFunc(binName),
		HelpWriter: os.Stdout,
	}

	exitCode, err := runner.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitCode
}
