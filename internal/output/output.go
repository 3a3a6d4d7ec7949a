// Package output serializes the facility envelope to disk.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"facility-export/internal/models"
)

// EncodeJSON writes env as 2-space indented JSON. Non-ASCII text and HTML
// characters are written as-is, and no trailing newline is added.
func EncodeJSON(w io.Writer, env models.Envelope) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}

// WriteJSON writes env to path, replacing any existing file.
func WriteJSON(path string, env models.Envelope) error {
	return writeFile(path, func(w io.Writer) error { return EncodeJSON(w, env) })
}

// WriteYAML writes env to path as YAML with the same key order as the JSON output.
func WriteYAML(path string, env models.Envelope) error {
	return writeFile(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(env); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	})
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
