package serialization

import (
	"fmt"
	"strings"
)

// Format names a document format supported by an Engine.
type Format string

const (
	// JSON uses the standard encoding/json package
	JSON Format = "json"
	// YAML uses gopkg.in/yaml.v3
	YAML Format = "yaml"
	// Msgpack uses github.com/vmihailenco/msgpack/v5 with json tags as fallback
	Msgpack Format = "msgpack"
	// GOB uses the encoding/gob package for Go-specific binary serialization
	GOB Format = "gob"
)

// IsValid checks if the format is supported
func (f Format) IsValid() bool {
	switch f {
	case JSON, YAML, Msgpack, GOB:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format
func (f Format) String() string {
	return string(f)
}

// NewEngine creates the engine for the format.
func (f Format) NewEngine() (Engine, error) {
	switch f {
	case JSON:
		return JSONEngine{}, nil
	case YAML:
		return YAMLEngine{}, nil
	case Msgpack:
		return MsgpackEngine{}, nil
	case GOB:
		return GOBEngine{}, nil
	default:
		return nil, fmt.Errorf("unsupported format '%s'", f)
	}
}

// ParseFormat parses a string into a Format and validates it
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))

	if !format.IsValid() {
		return "", fmt.Errorf("invalid format '%s': must be one of [%s, %s, %s, %s]",
			s, JSON, YAML, Msgpack, GOB)
	}

	return format, nil
}

// AllFormats returns all supported formats
func AllFormats() []Format {
	return []Format{JSON, YAML, Msgpack, GOB}
}
