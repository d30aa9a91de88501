package main

import (
	"io"
	"os"

	"github.com/zx06/xcred/internal/app"
	"github.com/zx06/xcred/internal/errors"
	"github.com/zx06/xcred/internal/output"
)

func main() {
	exit := run()
	os.Exit(exit)
}

// run is the main entry point
func run() int {
	return runWith(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// runWith executes the CLI with explicit args and streams.
func runWith(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := app.New(version, commit, date)
	w := output.New(stdout, stderr)

	root := NewRootCommand(stderr)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(NewSpecCommand(&a, &w))
	root.AddCommand(NewVersionCommand(&a, &w))
	root.AddCommand(NewSecretCommand(&w))
	root.AddCommand(NewKeyCommand(&w))
	root.AddCommand(NewTokenCommand(&w))
	root.AddCommand(NewVaultCommand(&w))
	root.AddCommand(NewMCPCommand())

	if err := root.Execute(); err != nil {
		xe := normalizeErr(err)
		format := resolveFormatForError(GlobalConfig.FormatStr)
		_ = w.WriteError(format, xe)
		return int(errors.ExitCodeFor(xe.Code))
	}

	return int(errors.ExitOK)
}
