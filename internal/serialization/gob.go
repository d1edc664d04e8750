package serialization

import (
	"bytes"
	"encoding/gob"
)

// GOBEngine implements the Engine interface using the encoding/gob package.
// It offers compact binary documents but limited interoperability with
// non-Go systems.
type GOBEngine struct{}

func (GOBEngine) Format() Format {
	return GOB
}

func (GOBEngine) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GOBEngine) Unmarshal(data []byte, v any) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}
