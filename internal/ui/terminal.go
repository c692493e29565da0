package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Interactive reports whether prompts can be shown: stdin must be a
// terminal to answer and stderr one to render on.
func Interactive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stderr)
}

// StdoutIsTerminal reports whether stdout is a terminal rather than a
// pipe or file.
func StdoutIsTerminal() bool {
	return isTerminal(os.Stdout)
}
