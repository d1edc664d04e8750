package serialization

import (
	"encoding/json"
)

// JSONEngine implements the Engine interface using the encoding/json package.
// It is the default engine and the only one whose output is meant to be read
// by humans.
type JSONEngine struct{}

func (JSONEngine) Format() Format {
	return JSON
}

func (JSONEngine) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONEngine) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
