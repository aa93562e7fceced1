package mindmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies a serialization format for mind map files.
type Format string

// Supported file formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
// ".yaml" and ".yml" select YAML; anything else selects JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Marshal encodes m in the given format.
// JSON output is indented with two spaces.
func Marshal(m MindMap, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(m, &buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a map from data in the given format.
func Unmarshal(data []byte, format Format) (MindMap, error) {
	return Read(bytes.NewReader(data), format)
}

// Write encodes m to w in the given format.
func Write(m MindMap, w io.Writer, format Format) error {
	m = m.Clone()
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Read decodes a map from r in the given format.
// Nil collections are normalized to empty slices.
func Read(r io.Reader, format Format) (MindMap, error) {
	var m MindMap
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&m); err != nil {
			return MindMap{}, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&m); err != nil {
			return MindMap{}, fmt.Errorf("decode json: %w", err)
		}
	default:
		return MindMap{}, fmt.Errorf("unsupported format: %s", format)
	}
	return m.Clone(), nil
}

// ReadFile reads and validates a map from path.
func ReadFile(path string) (MindMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return MindMap{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := Read(f, FormatFromPath(path))
	if err != nil {
		return MindMap{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return MindMap{}, fmt.Errorf("validate %s: %w", path, err)
	}
	return m, nil
}

// WriteFile writes m to path, creating or truncating the file.
func WriteFile(m MindMap, path string) error {
	data, err := Marshal(m, FormatFromPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
