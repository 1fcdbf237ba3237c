// Package export renders session history as Markdown, JSON or YAML.
package export

import (
	"fmt"
	"io"

	"github.com/jwulff/meetnotes/internal/session"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(sessions []session.Session, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: md, json, yaml)", format)
	}
}
