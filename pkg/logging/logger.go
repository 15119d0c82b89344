package logging

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Logger is the main logger type. A nil *Logger is valid and logs nothing,
// so subsystems can be handed a nil logger in tests without guarding every
// call site. Loggers are safe for concurrent use.
type Logger struct {
	// prefix is the dotted sublogger path, e.g. "search.evaluate".
	prefix string
	// level is the maximum level this logger (and its subloggers) will emit.
	level Level
	// output is the destination for formatted log lines.
	output io.Writer
	// mu serializes writes to output.
	mu *sync.Mutex
	// color indicates whether ANSI color codes should be emitted.
	color bool
}

// NewLogger creates a new root logger writing to output at the given level.
func NewLogger(level Level, output io.Writer) *Logger {
	useColor := false
	if f, ok := output.(interface{ Fd() uintptr }); ok {
		useColor = isatty.IsTerminal(f.Fd())
	}
	return &Logger{
		level:  level,
		output: output,
		mu:     &sync.Mutex{},
		color:  useColor,
	}
}

// Sublogger creates a new logger with the given name appended to the prefix
// chain. Subloggers share their parent's level, output, and lock.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{
		prefix: prefix,
		level:  l.level,
		output: l.output,
		mu:     l.mu,
		color:  l.color,
	}
}

// Level reports the logger's configured level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelDisabled
	}
	return l.level
}

func (l *Logger) emit(level Level, tag string, colorize func(string) string, line string) {
	if l == nil || l.level < level {
		return
	}
	prefix := ""
	if l.prefix != "" {
		prefix = "[" + l.prefix + "] "
	}
	formatted := fmt.Sprintf("%s %s%s%s\n", time.Now().Format("2006-01-02T15:04:05.000"), tag, prefix, line)
	if l.color && colorize != nil {
		formatted = colorize(formatted)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.output, formatted)
}

func colorizer(c *color.Color) func(string) string {
	return func(line string) string {
		return c.Sprint(line)
	}
}

var (
	errorColor = colorizer(color.New(color.FgRed))
	warnColor  = colorizer(color.New(color.FgYellow))
	infoColor  = colorizer(color.New(color.FgCyan))
	debugColor = colorizer(color.New(color.FgMagenta))
	traceColor = colorizer(color.New(color.FgWhite))
)

// Error logs an error unconditionally (subject to level filtering).
func (l *Logger) Error(err error) {
	l.emit(LevelError, "[ERROR]", errorColor, err.Error())
}

// Errorf logs a formatted error-level message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.emit(LevelError, "[ERROR]", errorColor, fmt.Sprintf(format, v...))
}

// Warn logs a warning derived from an error.
func (l *Logger) Warn(err error) {
	l.emit(LevelWarn, "[WARN] ", warnColor, err.Error())
}

// Warnf logs a formatted warning-level message.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.emit(LevelWarn, "[WARN] ", warnColor, fmt.Sprintf(format, v...))
}

// Info logs an info-level message.
func (l *Logger) Info(v ...interface{}) {
	l.emit(LevelInfo, "[INFO] ", infoColor, fmt.Sprint(v...))
}

// Infof logs a formatted info-level message.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.emit(LevelInfo, "[INFO] ", infoColor, fmt.Sprintf(format, v...))
}

// Debug logs a debug-level message.
func (l *Logger) Debug(v ...interface{}) {
	l.emit(LevelDebug, "[DEBUG]", debugColor, fmt.Sprint(v...))
}

// Debugf logs a formatted debug-level message.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.emit(LevelDebug, "[DEBUG]", debugColor, fmt.Sprintf(format, v...))
}

// Trace logs a trace-level message.
func (l *Logger) Trace(v ...interface{}) {
	l.emit(LevelTrace, "[TRACE]", traceColor, fmt.Sprint(v...))
}

// Tracef logs a formatted trace-level message.
func (l *Logger) Tracef(format string, v ...interface{}) {
	l.emit(LevelTrace, "[TRACE]", traceColor, fmt.Sprintf(format, v...))
}

// writer adapts a Logger to io.Writer, splitting input into lines.
type writer struct {
	callback func(string)
	buffer   []byte
}

func (w *writer) Write(p []byte) (int, error) {
	w.buffer = append(w.buffer, p...)
	var processed int
	remaining := w.buffer
	for {
		index := -1
		for i, b := range remaining {
			if b == '\n' {
				index = i
				break
			}
		}
		if index == -1 {
			break
		}
		w.callback(string(remaining[:index]))
		processed += index + 1
		remaining = remaining[index+1:]
	}
	if processed > 0 {
		leftover := len(w.buffer) - processed
		copy(w.buffer[:leftover], w.buffer[processed:])
		w.buffer = w.buffer[:leftover]
	}
	return len(p), nil
}

// Writer returns an io.Writer that logs each line written to it at info
// level. Useful for piping subprocess/collaborator output into the logger.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &writer{callback: func(s string) { l.Info(s) }}
}
