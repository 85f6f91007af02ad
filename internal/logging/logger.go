// Package logging writes structured JSON-lines logs for hook runs.
//
// Every event carries the run id of the process so the lines of one hook
// invocation can be grouped. A nil *Logger is valid and discards everything,
// which lets library code log without checking for configuration.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel maps a name to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Event is one log line.
type Event struct {
	TS    string         `json:"ts"`
	Level string         `json:"level"`
	RunID string         `json:"run_id"`
	Comp  string         `json:"comp"`
	Msg   string         `json:"msg"`
	KV    map[string]any `json:"kv,omitempty"`
}

type lineWriter interface {
	WriteLine(b []byte) error
}

// Logger is a leveled structured logger.
type Logger struct {
	runID string
	comp  string
	level Level
	sink  lineWriter
	mu    *sync.Mutex
	now   func() time.Time
}

// New creates a logger for component that writes to <dir>/<component>.log
// with size-based rotation.
func New(dir, component, level string) *Logger {
	comp := sanitizeName(component)
	return &Logger{
		runID: uuid.NewString(),
		comp:  comp,
		level: ParseLevel(level),
		sink:  NewRotatingFile(dir, comp, defaultMaxBytes, defaultKeep),
		mu:    &sync.Mutex{},
		now:   time.Now,
	}
}

// NewWriter creates a logger that writes lines to w.
func NewWriter(w io.Writer, component, level string) *Logger {
	return &Logger{
		runID: uuid.NewString(),
		comp:  sanitizeName(component),
		level: ParseLevel(level),
		sink:  writerSink{w},
		mu:    &sync.Mutex{},
		now:   time.Now,
	}
}

type writerSink struct{ w io.Writer }

func (s writerSink) WriteLine(b []byte) error {
	_, err := s.w.Write(append(b, '\n'))
	return err
}

// With returns a logger for a sub-component sharing the run id and sink.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	c := *l
	c.comp = l.comp + "." + component
	return &c
}

// RunID returns the id shared by every event of this process.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

func (l *Logger) log(lv Level, msg string, kv []any) {
	if l == nil || lv < l.level {
		return
	}
	ev := Event{
		TS:    l.now().UTC().Format(time.RFC3339Nano),
		Level: lv.String(),
		RunID: l.runID,
		Comp:  l.comp,
		Msg:   msg,
		KV:    pairs(kv),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"level":"error","msg":"unencodable log event: %v"}`, err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.sink.WriteLine(b); err != nil {
		// Logging must never break the caller; stderr is the last resort.
		_, _ = os.Stderr.Write(append(b, '\n'))
	}
}

// pairs turns alternating key/value arguments into a map. Errors are
// stored by message; a dangling key gets a nil value.
func pairs(kv []any) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		var val any
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		if err, ok := val.(error); ok {
			val = err.Error()
		}
		m[key] = val
	}
	return m
}

// Debug logs at debug level with alternating key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv) }

// Info logs at info level.
func (l *Logger) Info(msg string, kv ...any) { l.log(LevelInfo, msg, kv) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, kv ...any) { l.log(LevelWarn, msg, kv) }

// Error logs at error level.
func (l *Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv) }

// Close releases the file sink, if any.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	if c, ok := l.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
