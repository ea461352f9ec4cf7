package observability

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Verbose bool
	Output  io.Writer
	Service string
	Version string
	// NoColor forces plain output; color is otherwise enabled only on a TTY
	NoColor bool
}

// NewLogger creates a structured logger writing human-readable lines
func NewLogger(config LoggerConfig) *slog.Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(config.Output, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    config.NoColor || !isTerminal(config.Output),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.TimeValue(a.Value.Time().UTC())
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))

	if config.Service != "" {
		logger = logger.With("service", config.Service)
	}
	if config.Version != "" {
		logger = logger.With("version", config.Version)
	}

	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
