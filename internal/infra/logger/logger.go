package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

type sink struct {
	mu            sync.Mutex
	fileLogger    *log.Logger
	stdout        io.Writer
	includeStdout bool
}

type Logger struct {
	sink  *sink
	level Level
	name  string
}

func New(filePath string, level Level, includeStdout bool) (*Logger, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{
		sink: &sink{
			fileLogger:    log.New(f, "", 0),
			stdout:        os.Stdout,
			includeStdout: includeStdout,
		},
		level: level,
	}, nil
}

// NewWriter logs to w only. Used by tests and one-shot CLI commands.
func NewWriter(w io.Writer, level Level) *Logger {
	return &Logger{
		sink:  &sink{fileLogger: log.New(w, "", 0)},
		level: level,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWriter(io.Discard, LevelFatal+1)
}

// Named returns a logger sharing the same outputs that tags every line with
// the component name, e.g. "[assembler]".
func (l *Logger) Named(name string) *Logger {
	return &Logger{sink: l.sink, level: l.level, name: name}
}

func (l *Logger) log(lvl Level, prefix string, format string, v ...interface{}) {
	if lvl < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, v...)
	if l.name != "" {
		msg = "[" + l.name + "] " + msg
	}
	fullMsg := fmt.Sprintf("%s [%s] %s", timestamp, prefix, msg)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	l.sink.fileLogger.Println(fullMsg)

	// Debug stays out of stdout so it does not break the progress line
	if l.sink.includeStdout && lvl >= LevelInfo {
		fmt.Fprintf(l.sink.stdout, "\n%s", fullMsg)
	}
}

func ParseLevel(lvl string) Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) Debug(f string, v ...any) { l.log(LevelDebug, "DEBUG", f, v...) }
func (l *Logger) Info(f string, v ...any)  { l.log(LevelInfo, "INFO", f, v...) }
func (l *Logger) Warn(f string, v ...any)  { l.log(LevelWarn, "WARN", f, v...) }
func (l *Logger) Error(f string, v ...any) { l.log(LevelError, "ERROR", f, v...) }
func (l *Logger) Fatal(f string, v ...any) { l.log(LevelFatal, "FATAL", f, v...); os.Exit(1) }

func (l *Logger) Write(p []byte) (n int, err error) {
	// Echo and other libraries often include a newline at the end
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		l.Info("%s", msg)
	}
	return len(p), nil
}
