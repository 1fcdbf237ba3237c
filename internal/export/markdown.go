package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jwulff/meetnotes/internal/session"
)

// MarkdownExporter exports sessions in Markdown format. Transcripts are
// already Markdown and are written as is.
type MarkdownExporter struct{}

// Export exports sessions to Markdown format
func (e *MarkdownExporter) Export(sessions []session.Session, w io.Writer) error {
	for i, s := range sessions {
		_, _ = fmt.Fprintf(w, "# %s\n\n", s.Title)
		_, _ = fmt.Fprintf(w, "**Date:** %s  \n", s.Date)
		_, _ = fmt.Fprintf(w, "**Duration:** %s  \n", s.DurationLabel())
		_, _ = fmt.Fprintf(w, "**ID:** %s\n\n", s.ID)

		if s.Summary != "" {
			_, _ = fmt.Fprintf(w, "## Summary\n\n%s\n\n", strings.TrimSpace(s.Summary))
		}
		if len(s.ActionItems) > 0 {
			_, _ = fmt.Fprintf(w, "## Action Items\n\n")
			for _, item := range s.ActionItems {
				_, _ = fmt.Fprintf(w, "- [ ] %s\n", item)
			}
			_, _ = fmt.Fprintln(w)
		}
		if s.Transcription != "" {
			_, _ = fmt.Fprintf(w, "## Transcript\n\n%s\n\n", shiftHeadings(strings.TrimSpace(s.Transcription)))
		}

		// Add horizontal rule between sessions
		if i < len(sessions)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}
	return nil
}

// shiftHeadings nests the transcript's headings under "## Transcript".
// Fenced code is left alone.
func shiftHeadings(text string) string {
	lines := strings.Split(text, "\n")
	inCodeBlock := false
	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if !inCodeBlock && strings.HasPrefix(line, "#") {
			lines[i] = "##" + line
		}
	}
	return strings.Join(lines, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
