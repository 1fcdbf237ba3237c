package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jwulff/meetnotes/internal/session"
)

// YAMLExporter exports sessions in YAML format
type YAMLExporter struct{}

// Export exports sessions to YAML format
func (e *YAMLExporter) Export(sessions []session.Session, w io.Writer) error {
	if sessions == nil {
		sessions = []session.Session{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(sessions)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
