package recovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/session-recall/internal/config"
)

const (
	// DefaultMaxDocChars is where persistence documents are cut.
	DefaultMaxDocChars = 2500
	truncatedMarker    = "\n... [truncated]"
	rule               = "======================================================================"
	maxShownTopics     = 5
)

// Section is one persistence document included verbatim.
type Section struct {
	File      string `json:"file"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Excerpt is a selected segment with its rendered transcript.
type Excerpt struct {
	Candidate
	Content string `json:"content"`
}

// Document is the assembled recovery context.
type Document struct {
	Sections []Section `json:"sections"`
	Pending  []string  `json:"pending,omitempty"`
	Excerpts []Excerpt `json:"excerpts"`
}

// ReadSections loads each configured document present in dir. Missing or
// blank files are left out. The full text of the task document is returned
// separately so pending items past the cut are still seen.
func ReadSections(dir string, docs []config.Document, maxChars int) ([]Section, string, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxDocChars
	}
	var (
		sections []Section
		taskDoc  string
	)
	for _, d := range docs {
		data, err := os.ReadFile(filepath.Join(dir, d.File))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", d.File, err)
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			continue
		}
		if d.Tasks {
			taskDoc = content
		}
		sec := Section{File: d.File, Title: d.Title, Content: content}
		if utf8.RuneCountInString(content) > maxChars {
			sec.Content = truncateRunes(content, maxChars) + truncatedMarker
			sec.Truncated = true
		}
		sections = append(sections, sec)
	}
	return sections, taskDoc, nil
}

// String renders the document as hook context text.
func (d *Document) String() string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(rule)
	line("SESSION RECOVERED - segment-based context loading")
	line(rule)

	for _, s := range d.Sections {
		line("\n### %s (%s)\n", s.Title, s.File)
		line("%s", s.Content)
	}

	if len(d.Excerpts) > 0 {
		line("\n%s", rule)
		line("RELEVANT CONVERSATION CONTEXT")
		line(rule)
		for _, e := range d.Excerpts {
			line("\n--- Segment %s (score: %.0f) ---", e.Segment.ID, e.Score)
			line("Topics: %s", strings.Join(head(e.Segment.Topics, maxShownTopics), ", "))
			line("Summary: %s", e.Segment.Summary)
			line("\nConversation excerpt:")
			line("%s", e.Content)
		}
		line("\n[Loaded %d relevant segments from session history]", len(d.Excerpts))
	}

	if len(d.Sections) > 0 {
		files := make([]string, 0, len(d.Sections))
		for _, s := range d.Sections {
			files = append(files, s.File)
		}
		line("\n%s", rule)
		line("Continue where you left off. Context has been restored.")
		line("Update persistence files (%s) as you work.", strings.Join(files, ", "))
		b.WriteString(rule)
	} else {
		b.WriteString("\nNo persistence files found. This may be a fresh session.")
	}
	return b.String()
}
