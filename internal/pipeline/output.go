package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"radindex/internal"
)

// MarshalDocument encodes doc with indent spaces per level (0 = compact).
// HTML escaping is off so that "&" in rule types stays readable.
func MarshalDocument(doc *internal.Document, indent int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument writes doc to path through a temp file in the same
// directory, so readers never see partial output.
func WriteDocument(doc *internal.Document, path string, indent int) error {
	blob, err := MarshalDocument(doc, indent)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return writeFileAtomic(path, blob)
}

func writeFileAtomic(path string, blob []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ReadDocument loads a previously written document.
func ReadDocument(path string) (*internal.Document, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc internal.Document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if doc.Annexes == nil {
		doc.Annexes = map[string][]internal.Record{}
	}
	return &doc, nil
}
