package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_EmptyInput(t *testing.T) {
	assert.Nil(t, Chunk("", DefaultOptions()))
	assert.Nil(t, Chunk("  \n\n ", DefaultOptions()))
}

func TestChunk_ShortContent(t *testing.T) {
	text := "USER: fix the login bug\nASSISTANT: on it\n[Modified: auth.go]"
	result := Chunk(text, DefaultOptions())
	require.Len(t, result, 1)
	assert.Equal(t, ChunkResult{Text: text, StartLine: 1, EndLine: 3}, result[0])
}

func TestChunk_PacksWholeEntries(t *testing.T) {
	msg := strings.Repeat("word ", 30) // 150 runes
	var lines []string
	for i := 0; i < 6; i++ {
		lines = append(lines, "USER: "+msg, "ASSISTANT: "+msg)
	}
	result := Chunk(strings.Join(lines, "\n"), DefaultOptions())
	require.GreaterOrEqual(t, len(result), 2)

	prevEnd := 0
	for i, c := range result {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), DefaultMaxSize, "chunk %d", i)
		assert.True(t, strings.HasPrefix(c.Text, "USER: ") || strings.HasPrefix(c.Text, "ASSISTANT: "),
			"chunk %d does not start at an entry: %q", i, c.Text[:20])
		assert.Equal(t, prevEnd+1, c.StartLine, "chunk %d start", i)
		prevEnd = c.EndLine
	}
	assert.Equal(t, 12, prevEnd)
}

func TestChunk_ContinuationLinesStayWithEntry(t *testing.T) {
	body := strings.Repeat("x", 250)
	text := "USER: first\n" + body + "\n" + body + "\nASSISTANT: reply " + body
	result := Chunk(text, DefaultOptions())
	require.Len(t, result, 2)
	assert.Equal(t, 1, result[0].StartLine)
	assert.Equal(t, 3, result[0].EndLine)
	assert.Equal(t, 4, result[1].StartLine)
}

func TestChunk_HardSplitsOversizedEntry(t *testing.T) {
	text := "ASSISTANT: " + strings.Repeat("lorem ipsum ", 150) // ~1800 runes
	result := Chunk(text, DefaultOptions())
	require.GreaterOrEqual(t, len(result), 4)
	for i, c := range result {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), DefaultTargetSize, "chunk %d", i)
		assert.False(t, strings.HasSuffix(c.Text, "lore"), "chunk %d was cut mid-word", i)
	}
}

func TestHardSplit_NoSpaces(t *testing.T) {
	parts := hardSplit(strings.Repeat("é", 1000), 400)
	require.Len(t, parts, 3)
	assert.Equal(t, 200, utf8.RuneCountInString(parts[2]))
}
