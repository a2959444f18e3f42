// Package cli implements the meshmap command-line interface.
//
// The CLI is built with cobra and logs through charmbracelet/log. Settings
// come from a TOML config file (see pkg/config) and are overridden by flags.
//
// # Commands
//
//   - render: Settle a topology and export it to SVG, PNG, JPG, PDF, DOT or JSON
//   - serve: Serve the live, draggable map over HTTP
//   - tui: Explore the live map in the terminal with the mouse
//   - inspect: Print devices and links as tables
//   - import: Store a topology snapshot in SQLite or MongoDB
//   - cache: Manage the render cache
//   - config: Write or show the config file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is also attached to the command context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Component prefixes for loggers handed to library packages.
const (
	componentMap      = "map"
	componentPipeline = "pipeline"
	componentServer   = "server"
)

// newLogger creates the CLI logger. Timestamps are "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// componentLogger returns a child of l whose lines are prefixed with the
// component name, so map, pipeline and server output can be told apart
// under --verbose. The child copies l's level and writer when created.
func componentLogger(l *log.Logger, component string) *log.Logger {
	return l.WithPrefix(component)
}

// progress times one CLI operation and logs its outcome as structured
// fields.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time, for example
//
//	INFO rendered formats=svg,png devices=42 ticks=300 elapsed=1.234s
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx. A nil ctx starts from Background.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
