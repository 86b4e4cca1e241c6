package logging

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Setup installs the process-wide slog logger on stderr. Terminals get
// colored text; anything else gets JSON.
func Setup(verbose bool) {
	slog.SetDefault(New(os.Stderr, verbose, !isTerminal()))
}

// New returns a slog logger backed by charmbracelet/log writing to w.
func New(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "refgraph",
	})

	if verbose {
		handler.SetLevel(charmlog.DebugLevel)
	} else {
		handler.SetLevel(charmlog.InfoLevel)
	}

	if jsonFormat {
		handler.SetFormatter(charmlog.JSONFormatter)
	}

	return slog.New(handler)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
