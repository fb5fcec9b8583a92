package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	NoticeLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps "debug", "info", "notice", "warn" and "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "notice":
		return NoticeLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

var prefixes = map[Level]string{
	DebugLevel:  "[DEBUG]  ",
	InfoLevel:   "[INFO]   ",
	NoticeLevel: "[NOTICE] ",
	WarnLevel:   "[WARN]   ",
	ErrorLevel:  "[ERROR]  ",
}

var colors = map[Level]color.Attribute{
	DebugLevel:  color.FgWhite,
	InfoLevel:   color.FgCyan,
	NoticeLevel: color.FgHiGreen,
	WarnLevel:   color.FgYellow,
	ErrorLevel:  color.FgRed,
}

// Logger is a printf-style logger used by every component of the rescue.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	// Notice is for lines the operator must not miss (success, abort).
	Notice(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// EmptyLogger discards everything.
type EmptyLogger struct{}

var _ Logger = (*EmptyLogger)(nil)

func (l *EmptyLogger) Debug(_ string, _ ...interface{})  {}
func (l *EmptyLogger) Info(_ string, _ ...interface{})   {}
func (l *EmptyLogger) Notice(_ string, _ ...interface{}) {}
func (l *EmptyLogger) Warn(_ string, _ ...interface{})   {}
func (l *EmptyLogger) Error(_ string, _ ...interface{})  {}

// StdLogger writes level-prefixed lines through the standard log package.
type StdLogger struct {
	enableColoring bool
	level          Level
	out            *log.Logger
	mu             sync.Mutex
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(enableColoring bool, level Level) *StdLogger {
	return NewStdLoggerTo(os.Stdout, enableColoring, level)
}

// NewStdLoggerTo is NewStdLogger with an explicit writer.
func NewStdLoggerTo(w io.Writer, enableColoring bool, level Level) *StdLogger {
	return &StdLogger{
		enableColoring: enableColoring,
		level:          level,
		out:            log.New(w, "", log.LstdFlags),
	}
}

func (l *StdLogger) formatMessage(level Level, format string) string {
	prefix := prefixes[level]
	if l.enableColoring {
		prefix = color.New(colors[level]).Sprint(prefix)
	}
	return prefix + format
}

func (l *StdLogger) print(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= level {
		l.out.Printf(l.formatMessage(level, format), args...)
	}
}

func (l *StdLogger) Debug(format string, args ...interface{})  { l.print(DebugLevel, format, args...) }
func (l *StdLogger) Info(format string, args ...interface{})   { l.print(InfoLevel, format, args...) }
func (l *StdLogger) Notice(format string, args ...interface{}) { l.print(NoticeLevel, format, args...) }
func (l *StdLogger) Warn(format string, args ...interface{})   { l.print(WarnLevel, format, args...) }
func (l *StdLogger) Error(format string, args ...interface{})  { l.print(ErrorLevel, format, args...) }
