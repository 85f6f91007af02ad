// Package chunker splits rendered segment excerpts into chunks for search
// indexing.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultTargetSize = 400
	DefaultMinSize    = 100
	DefaultMaxSize    = 600
)

// Options configures chunking behavior. Sizes are in runes.
type Options struct {
	TargetSize int
	MinSize    int
	MaxSize    int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		MinSize:    DefaultMinSize,
		MaxSize:    DefaultMaxSize,
	}
}

// ChunkResult is a chunk with the 1-based excerpt lines it covers.
type ChunkResult struct {
	Text      string
	StartLine int
	EndLine   int
}

// entryPrefixes start a new excerpt entry; other lines continue the
// previous one.
var entryPrefixes = []string{"USER: ", "ASSISTANT: ", "["}

// Chunk splits an excerpt into chunks. Short text (<= MaxSize) is a single
// chunk. Otherwise whole entries are packed up to TargetSize, and entries
// longer than MaxSize are cut at word boundaries.
func Chunk(text string, opts Options) []ChunkResult {
	if opts.TargetSize == 0 {
		opts = DefaultOptions()
	}

	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return nil
	}

	if utf8.RuneCountInString(text) <= opts.MaxSize {
		lines := strings.Count(text, "\n")
		return []ChunkResult{{Text: text, StartLine: 1, EndLine: lines + 1}}
	}

	return pack(splitEntries(text), opts)
}

// entry is one role-prefixed message or tool annotation.
type entry struct {
	text      string
	startLine int
	endLine   int
}

func splitEntries(text string) []entry {
	lines := strings.Split(text, "\n")
	var (
		entries []entry
		current []string
		start   = 1
	)
	flush := func(end int) {
		if t := strings.TrimSpace(strings.Join(current, "\n")); t != "" {
			entries = append(entries, entry{text: t, startLine: start, endLine: end})
		}
		current = nil
		start = end + 1
	}
	for i, line := range lines {
		if startsEntry(line) && len(current) > 0 {
			flush(i)
		}
		current = append(current, line)
	}
	flush(len(lines))
	return entries
}

func startsEntry(line string) bool {
	for _, p := range entryPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func pack(entries []entry, opts Options) []ChunkResult {
	var (
		results []ChunkResult
		accum   entry
		size    int
	)
	flush := func() {
		if accum.text == "" {
			return
		}
		results = append(results, ChunkResult{Text: accum.text, StartLine: accum.startLine, EndLine: accum.endLine})
		accum, size = entry{}, 0
	}

	for _, e := range entries {
		n := utf8.RuneCountInString(e.text)
		if n > opts.MaxSize {
			flush()
			for _, part := range hardSplit(e.text, opts.TargetSize) {
				results = append(results, ChunkResult{Text: part, StartLine: e.startLine, EndLine: e.endLine})
			}
			continue
		}
		if accum.text != "" && size+1+n > opts.TargetSize && size >= opts.MinSize {
			flush()
		}
		if accum.text == "" {
			accum, size = e, n
			continue
		}
		accum.text += "\n" + e.text
		accum.endLine = e.endLine
		size += 1 + n
	}
	flush()
	return results
}

// hardSplit cuts text into pieces of at most size runes, preferring to
// break after whitespace.
func hardSplit(text string, size int) []string {
	var parts []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= size {
			parts = append(parts, strings.TrimSpace(string(runes)))
			break
		}
		cut := size
		for i := size; i > size/2; i-- {
			if unicode.IsSpace(runes[i-1]) {
				cut = i
				break
			}
		}
		if p := strings.TrimSpace(string(runes[:cut])); p != "" {
			parts = append(parts, p)
		}
		runes = runes[cut:]
	}
	return parts
}
