package logging

import (
	"log/slog"
	"os"
)

// Init installs the process-wide slog handler. Verbose mode lowers the level
// to Debug so per-object scan progress becomes visible.
func Init(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
