// Package logging builds the process logger: a console sink for the
// operator and an append-only file sink that keeps debug detail.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

const FileName = "automation.log"

// LevelCritical marks failures that stop a whole stage, such as missing
// mail credentials.
const LevelCritical = slog.Level(12)

// Setup returns a logger writing INFO to stderr (DEBUG when debug is set)
// and DEBUG to dir/automation.log. The closer releases the log file.
func Setup(dir string, debug bool) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	consoleLevel := slog.LevelInfo
	if debug {
		consoleLevel = slog.LevelDebug
	}
	return New(os.Stderr, consoleLevel, f), f, nil
}

// New fans out to a text console handler at consoleLevel and, when file is
// non-nil, a DEBUG text handler on file.
func New(console io.Writer, consoleLevel slog.Level, file io.Writer) *slog.Logger {
	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: consoleLevel, ReplaceAttr: levelNames}),
	}
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug, ReplaceAttr: levelNames}))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

func levelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelCritical {
		a.Value = slog.StringValue("CRITICAL")
	}
	return a
}
