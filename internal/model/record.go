// Package model defines the transcript, segment and archive data types.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind classifies a transcript record.
type Kind string

const (
	KindInbound  Kind = "inbound"
	KindOutbound Kind = "outbound"
	KindSnapshot Kind = "snapshot"
	KindSummary  Kind = "summary"
	KindOther    Kind = "other"
)

// Counted reports whether records of this kind take part in segmentation.
// Snapshots, summaries and unknown record types are skipped entirely.
func (k Kind) Counted() bool {
	return k == KindInbound || k == KindOutbound
}

// BlockType distinguishes outbound content blocks.
type BlockType string

const (
	BlockText BlockType = "text"
	BlockTool BlockType = "tool"
)

// Block is one element of an outbound record's content.
type Block struct {
	Type  BlockType       `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Record is a decoded transcript line. Records are never mutated once decoded.
type Record struct {
	Line      int     `json:"line"`
	Offset    int64   `json:"offset"`
	Kind      Kind    `json:"kind"`
	Timestamp string  `json:"timestamp,omitempty"`
	Text      string  `json:"text,omitempty"`
	Blocks    []Block `json:"blocks,omitempty"`
}

// Time parses the record timestamp. ok is false when it is missing or unparseable.
func (r *Record) Time() (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	return ParseTimestamp(r.Timestamp)
}

// Tools returns the tool invocation blocks of the record in order.
func (r *Record) Tools() []Block {
	var out []Block
	for _, b := range r.Blocks {
		if b.Type == BlockTool {
			out = append(out, b)
		}
	}
	return out
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts ISO-8601 timestamps with or without a zone.
// Zone-less values are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
