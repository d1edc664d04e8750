package serialization

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackEngine implements the Engine interface using msgpack. Structs
// without `msgpack` tags fall back to their `json` tags so a single set of
// tags describes both formats.
type MsgpackEngine struct{}

func (MsgpackEngine) Format() Format {
	return Msgpack
}

func (MsgpackEngine) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackEngine) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
