package affix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
	"gopkg.in/yaml.v3"
)

// Affixer names the codec of a Field statically. Implementations are
// usually empty marker types:
//
//	type Celsius struct{}
//
//	func (Celsius) Affix() affix.Codec { return celsius }
//
//	var celsius = affix.MustNew("C", affix.Suffix)
type Affixer interface {
	Affix() Codec
}

// Field wraps a scalar so that every serialization framework writing it
// through the json, yaml, msgpack, gob or encoding.Text hooks sees a single
// affixed string. A failed decode leaves Value untouched.
type Field[T Scalar, A Affixer] struct {
	Value T
}

// NewField wraps v. The affixer is named explicitly, the scalar inferred:
//
//	f := affix.NewField[Celsius](-12.3)
func NewField[A Affixer, T Scalar](v T) Field[T, A] {
	return Field[T, A]{Value: v}
}

func (f Field[T, A]) Get() T {
	return f.Value
}

// Codec returns the codec named by A.
func (f Field[T, A]) Codec() Codec {
	var a A
	return a.Affix()
}

// String returns the affixed form of the value. See Encode for values whose
// MarshalText fails; the marshal hooks report that error instead.
func (f Field[T, A]) String() string {
	return Encode(f.Codec(), f.Value)
}

func (f Field[T, A]) encode() (string, error) {
	return f.Codec().EncodeValue(reflect.ValueOf(f.Value))
}

func (f *Field[T, A]) decode(s string) error {
	v, err := Decode[T](f.Codec(), s)
	if err != nil {
		return err
	}
	f.Value = v
	return nil
}

func (f Field[T, A]) MarshalText() ([]byte, error) {
	s, err := f.encode()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (f *Field[T, A]) UnmarshalText(text []byte) error {
	return f.decode(string(text))
}

func (f Field[T, A]) MarshalJSON() ([]byte, error) {
	s, err := f.encode()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// UnmarshalJSON accepts a JSON string only. As with encoding/json itself, a
// null is a no-op.
func (f *Field[T, A]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) == 0 || data[0] != '"' {
		return fmt.Errorf("%w: got JSON %s", ErrNotString, data)
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return f.decode(s)
}

func (f Field[T, A]) MarshalYAML() (any, error) {
	return f.encode()
}

// UnmarshalYAML accepts any scalar node and decodes its text. A null node is
// a no-op.
func (f *Field[T, A]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: got YAML node of kind %d at line %d", ErrNotString, node.Kind, node.Line)
	}
	if node.ShortTag() == "!!null" {
		return nil
	}
	return f.decode(node.Value)
}

func (f Field[T, A]) EncodeMsgpack(enc *msgpack.Encoder) error {
	s, err := f.encode()
	if err != nil {
		return err
	}
	return enc.EncodeString(s)
}

// DecodeMsgpack accepts a msgpack string only. A nil is a no-op.
func (f *Field[T, A]) DecodeMsgpack(dec *msgpack.Decoder) error {
	code, err := dec.PeekCode()
	if err != nil {
		return err
	}
	if code == msgpcode.Nil {
		return dec.DecodeNil()
	}
	if !msgpcode.IsString(code) {
		return fmt.Errorf("%w: got msgpack code 0x%x", ErrNotString, code)
	}

	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return f.decode(s)
}
