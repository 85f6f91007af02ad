package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rcliao/session-recall/internal/model"
)

var (
	colorSubtext  = lipgloss.Color("#908caa")
	colorLavender = lipgloss.Color("#c4a7e7")
	colorGreen    = lipgloss.Color("#9ccfd8")
	colorPeach    = lipgloss.Color("#f6c177")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorLavender)

	idStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorGreen)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorSubtext)

	boundaryStyle = lipgloss.NewStyle().
			Foreground(colorPeach)

	numberStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen).
			Width(8).
			Align(lipgloss.Right)

	excerptStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(colorSubtext)
)

// renderSegment formats one segment as a two-line entry.
func renderSegment(seg model.Segment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n",
		idStyle.Render(seg.ID),
		labelStyle.Render(fmt.Sprintf("lines %d-%d (%d)", seg.StartLine, seg.EndLine, seg.LineCount)),
		boundaryStyle.Render(seg.BoundaryType))
	fmt.Fprintf(&b, "    %s", seg.Summary)
	return b.String()
}

// renderStat formats a right-aligned number with its label.
func renderStat(n any, label string) string {
	return numberStyle.Render(fmt.Sprint(n)) + "  " + labelStyle.Render(label)
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
