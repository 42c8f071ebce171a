// Package logging builds the zerolog loggers used across the application and
// a small Printf-style facade for components that only emit status lines.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Logger is the minimal Printf-style interface used by the server for
// human-oriented status lines.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// New returns a zerolog logger tagged with component. Output to a terminal is
// rendered with zerolog.ConsoleWriter, anything else as JSON lines.
func New(w io.Writer, component string, level zerolog.Level) zerolog.Logger {
	if w == nil {
		w = io.Discard
	}
	if isTerminal(w) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
}

// ParseLevel parses a level name; the empty string means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// ZerologAdapter exposes a zerolog.Logger through Logger. Every line is an
// info event with the formatted text as message.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps an existing zerolog logger.
func NewZerologAdapter(l zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: l}
}

// NewLogger returns a Logger writing to w at info level.
func NewLogger(w io.Writer, component string) *ZerologAdapter {
	return NewZerologAdapter(New(w, component, zerolog.InfoLevel))
}

// Printf implements Logger.
func (a *ZerologAdapter) Printf(format string, v ...any) {
	a.logger.Info().Msg(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
}

// Println implements Logger.
func (a *ZerologAdapter) Println(v ...any) {
	a.logger.Info().Msg(strings.TrimRight(fmt.Sprintln(v...), "\n"))
}

// Zerolog returns the wrapped logger.
func (a *ZerologAdapter) Zerolog() zerolog.Logger {
	return a.logger
}

// StdLoggerAdapter exposes a standard library *log.Logger through Logger.
type StdLoggerAdapter struct {
	logger *log.Logger
}

// NewStdLoggerAdapter wraps l.
func NewStdLoggerAdapter(l *log.Logger) *StdLoggerAdapter {
	return &StdLoggerAdapter{logger: l}
}

// Printf implements Logger.
func (a *StdLoggerAdapter) Printf(format string, v ...any) { a.logger.Printf(format, v...) }

// Println implements Logger.
func (a *StdLoggerAdapter) Println(v ...any) { a.logger.Println(v...) }
