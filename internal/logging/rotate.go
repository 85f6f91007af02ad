package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	defaultMaxBytes = 1_000_000
	defaultKeep     = 3
)

// RotatingFile appends lines to <dir>/<name>.log and rotates by size:
// name.log -> name.1.log -> name.2.log, keeping at most keep files.
type RotatingFile struct {
	dir      string
	name     string
	maxBytes int64
	keep     int

	mu      sync.Mutex
	f       *os.File
	curSize int64
}

// NewRotatingFile creates a sink. Nothing is opened until the first write.
func NewRotatingFile(dir, name string, maxBytes int64, keep int) *RotatingFile {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if keep <= 0 {
		keep = defaultKeep
	}
	return &RotatingFile{dir: dir, name: name, maxBytes: maxBytes, keep: keep}
}

// Path returns the current log file path.
func (w *RotatingFile) Path() string {
	return filepath.Join(w.dir, w.name+".log")
}

// WriteLine appends b and a newline, rotating first if the file would
// grow past maxBytes.
func (w *RotatingFile) WriteLine(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureOpen(); err != nil {
		return err
	}
	lineLen := int64(len(b) + 1)
	if w.curSize > 0 && w.curSize+lineLen > w.maxBytes {
		if err := w.rotate(); err != nil {
			return err
		}
	}
	n, err := w.f.Write(append(b, '\n'))
	w.curSize += int64(n)
	return err
}

func (w *RotatingFile) ensureOpen() error {
	if w.f != nil {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.f = f
	w.curSize = 0
	if st, err := f.Stat(); err == nil {
		w.curSize = st.Size()
	}
	return nil
}

func (w *RotatingFile) backup(i int) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s.%d.log", w.name, i))
}

func (w *RotatingFile) rotate() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	// Oldest backup falls off, the rest shift up by one.
	_ = os.Remove(w.backup(w.keep - 1))
	for i := w.keep - 2; i >= 1; i-- {
		if _, err := os.Stat(w.backup(i)); err == nil {
			if err := os.Rename(w.backup(i), w.backup(i+1)); err != nil {
				return fmt.Errorf("shift log backup: %w", err)
			}
		}
	}
	if w.keep > 1 {
		if err := os.Rename(w.Path(), w.backup(1)); err != nil {
			return fmt.Errorf("rotate log: %w", err)
		}
	} else {
		_ = os.Remove(w.Path())
	}
	return w.ensureOpen()
}

// Close closes the open file handle.
func (w *RotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "session-recall"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '-'
		}
		return r
	}, name)
}
