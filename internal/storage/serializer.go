package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format names a serialization format for profile files
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat converts a configuration value into a Format
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatTOML:
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported storage format '%s'", s)
}

// Extension returns the file extension used for the format, without a dot
func (f Format) Extension() string {
	return string(f)
}

// NewSerializer returns the serializer for a format
func NewSerializer[T any](format Format) (Serializer[T], error) {
	switch format {
	case FormatJSON:
		return JSONSerializer[T]{}, nil
	case FormatYAML:
		return YAMLSerializer[T]{}, nil
	case FormatTOML:
		return TOMLSerializer[T]{}, nil
	}
	return nil, fmt.Errorf("unsupported storage format '%s'", format)
}

// JSONSerializer stores records as an indented top-level JSON array
type JSONSerializer[T any] struct{}

func (JSONSerializer[T]) Format() Format { return FormatJSON }

func (JSONSerializer[T]) Serialize(records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	// Keep '<' and '&' readable in descriptions and bypass lists.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("%w: encoding json: %v", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

func (JSONSerializer[T]) Deserialize(data []byte) ([]T, error) {
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding json: %v", ErrSerialization, err)
	}
	return records, nil
}

// YAMLSerializer stores records as a top-level YAML sequence
type YAMLSerializer[T any] struct{}

func (YAMLSerializer[T]) Format() Format { return FormatYAML }

func (YAMLSerializer[T]) Serialize(records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("%w: encoding yaml: %v", ErrSerialization, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: encoding yaml: %v", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

func (YAMLSerializer[T]) Deserialize(data []byte) ([]T, error) {
	var records []T
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding yaml: %v", ErrSerialization, err)
	}
	return records, nil
}

// tomlDocument wraps the record list; TOML has no top-level arrays.
type tomlDocument[T any] struct {
	Profiles []T `toml:"profiles"`
}

// TOMLSerializer stores records as a [[profiles]] array of tables
type TOMLSerializer[T any] struct{}

func (TOMLSerializer[T]) Format() Format { return FormatTOML }

func (TOMLSerializer[T]) Serialize(records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = "  "
	if err := enc.Encode(tomlDocument[T]{Profiles: records}); err != nil {
		return nil, fmt.Errorf("%w: encoding toml: %v", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

func (TOMLSerializer[T]) Deserialize(data []byte) ([]T, error) {
	var doc tomlDocument[T]
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding toml: %v", ErrSerialization, err)
	}
	return doc.Profiles, nil
}
