package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/signalsfoundry/searcharc/model"
)

// WriteRunJSON writes the complete run document, indented for inspection.
// The serve command reads these files back into the run store.
func WriteRunJSON(w io.Writer, run *model.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("WriteRunJSON: encode failed: %w", err)
	}
	return nil
}
