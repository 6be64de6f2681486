package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportFileName names an export after the moment it was taken.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("chromaleap-analysis-%d.json", now.UnixMilli())
}

// Export writes the full document, indented with two spaces.
func Export(w io.Writer, r Result) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.raw, "", "  "); err != nil {
		return fmt.Errorf("indent analysis: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// Import reads a document previously written by Export.
func Import(rd io.Reader) (Result, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return Result{}, err
	}
	return NewResult(data)
}
