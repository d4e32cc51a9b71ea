package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition formats understood by ParseDefinition.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFromPath picks a definition format from a file extension,
// defaulting to JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseDefinition decodes a network definition. Unknown fields are
// rejected so that typos in hand-written files surface early.
func ParseDefinition(data []byte, format string) (NetworkDefinition, error) {
	var def NetworkDefinition
	if err := DecodeStrict(bytes.NewReader(data), format, &def); err != nil {
		return NetworkDefinition{}, err
	}
	return def, nil
}

// DecodeStrict decodes one JSON or YAML document from r into v, failing on
// fields v does not declare.
func DecodeStrict(r io.Reader, format string, v any) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported definition format %q", format)
	}
	return nil
}

// EncodeDefinition renders a definition in the given format.
func EncodeDefinition(def NetworkDefinition, format string) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(def)
	case FormatJSON:
		return json.MarshalIndent(def, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported definition format %q", format)
	}
}
