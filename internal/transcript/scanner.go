// Package transcript reads append-only JSONL conversation logs.
package transcript

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Line is one newline-terminated line of the transcript.
type Line struct {
	Number int   // 0-based line index
	Offset int64 // byte offset of the first byte of the line
	End    int64 // offset just past the line's newline
	Bytes  []byte
}

// Scanner yields complete lines starting at a resume position. A trailing
// line without a newline is not yielded and does not advance the position,
// so a writer that is mid-append is picked up on the next run.
type Scanner struct {
	f      *os.File
	r      *bufio.Reader
	line   int
	offset int64
	cur    Line
	err    error
}

// ErrBeyondEOF is returned when the resume offset lies past the end of the file.
var ErrBeyondEOF = errors.New("resume offset beyond end of transcript")

// Open starts scanning path at the given position. When offset is 0 and
// line is positive the first line lines are skipped by reading.
func Open(path string, line int, offset int64) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s := &Scanner{f: f}

	if offset > 0 {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		if offset > info.Size() {
			f.Close()
			return nil, fmt.Errorf("%w: offset %d, size %d", ErrBeyondEOF, offset, info.Size())
		}
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("seek: %w", err)
		}
		s.r = bufio.NewReaderSize(f, 64*1024)
		s.line, s.offset = line, offset
		return s, nil
	}

	s.r = bufio.NewReaderSize(f, 64*1024)
	for s.line < line {
		if !s.Next() {
			if s.err != nil {
				f.Close()
				return nil, s.err
			}
			break
		}
	}
	return s, nil
}

// Next advances to the next complete line.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	b, err := s.r.ReadBytes('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return false
	}
	s.cur = Line{
		Number: s.line,
		Offset: s.offset,
		End:    s.offset + int64(len(b)),
		Bytes:  bytes.TrimRight(b[:len(b)-1], "\r"),
	}
	s.line++
	s.offset += int64(len(b))
	return true
}

// Line returns the current line. The byte slice is only valid until Next.
func (s *Scanner) Line() Line { return s.cur }

// Pos returns the position just past the last yielded line.
func (s *Scanner) Pos() (line int, offset int64) { return s.line, s.offset }

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error { return s.err }

// Close closes the underlying file.
func (s *Scanner) Close() error { return s.f.Close() }
