package output

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// WriteJSON writes v to w as indented JSON followed by a newline.
// Monetary fields use models.Amount and encode as plain decimals.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
