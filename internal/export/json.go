package export

import (
	"encoding/json"
	"io"

	"github.com/jwulff/meetnotes/internal/session"
)

// JSONExporter writes the sessions as a pretty-printed JSON array, in the
// same shape the history is stored.
type JSONExporter struct{}

func (e *JSONExporter) Export(sessions []session.Session, w io.Writer) error {
	if sessions == nil {
		sessions = []session.Session{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sessions)
}

func (e *JSONExporter) Extension() string {
	return "json"
}
