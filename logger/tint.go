package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// NewTint creates a logger rendering compact colorized output to stderr,
// disabling color when stderr is not a terminal. Intended for command-line
// tools; library code should stay on NewSlog.
func NewTint(level Level) Logger {
	w := os.Stderr
	inst := &SlogLogger{output: w}
	inst.level = &slog.LevelVar{}
	inst.level.Set(toSlogLevel(level))

	inst.logger = slog.New(tint.NewHandler(w, &tint.Options{
		Level:      inst.level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty.IsTerminal(w.Fd()),
	}))

	return inst
}
