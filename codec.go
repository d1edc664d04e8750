package affix

import (
	"fmt"
	"reflect"
	"strings"
)

// Codec attaches a fixed affix to the textual form of values and strips it
// back off. A Codec is immutable once built and safe for concurrent use; the
// zero value has no affix and must not be used, build one with New.
type Codec struct {
	text     string
	position Position
}

// New returns a codec for the given affix text and position.
func New(text string, position Position) (Codec, error) {
	if text == "" {
		return Codec{}, ErrEmptyAffix
	}
	if !position.IsValid() {
		return Codec{}, fmt.Errorf("%w: %s", ErrInvalidPosition, position)
	}
	return Codec{text: text, position: position}, nil
}

// NewPrefix returns a codec attaching text at the start of values.
func NewPrefix(text string) (Codec, error) {
	return New(text, Prefix)
}

// NewSuffix returns a codec attaching text at the end of values.
func NewSuffix(text string) (Codec, error) {
	return New(text, Suffix)
}

// MustNew is like New but panics on error. It is meant for package level
// codec declarations.
func MustNew(text string, position Position) Codec {
	c, err := New(text, position)
	if err != nil {
		panic(fmt.Sprintf("affix: %v", err))
	}
	return c
}

func (c Codec) Text() string {
	return c.text
}

func (c Codec) Position() Position {
	return c.position
}

// String returns a description such as `suffix "_kek"`.
func (c Codec) String() string {
	return fmt.Sprintf("%s %q", c.position, c.text)
}

// Attach returns t with the affix attached at the codec position.
func (c Codec) Attach(t string) string {
	if c.position == Suffix {
		return t + c.text
	}
	return c.text + t
}

// Strip checks that s carries the affix at the codec position and returns
// the payload left after removing exactly that one occurrence. The interior
// of s is never searched, so a payload may itself contain the affix text.
func (c Codec) Strip(s string) (string, error) {
	var (
		payload string
		found   bool
	)
	if c.position == Suffix {
		payload, found = strings.CutSuffix(s, c.text)
	} else {
		payload, found = strings.CutPrefix(s, c.text)
	}
	if !found {
		return "", newMissingAffixError(s, c.position)
	}
	return payload, nil
}

// EncodeValue renders v and attaches the affix.
func (c Codec) EncodeValue(v reflect.Value) (string, error) {
	t, err := FormatValue(v)
	if err != nil {
		return "", err
	}
	return c.Attach(t), nil
}

// DecodeValue strips the affix from s and parses the payload into v, which
// must be settable. v is left untouched on failure.
func (c Codec) DecodeValue(s string, v reflect.Value) error {
	payload, err := c.Strip(s)
	if err != nil {
		return err
	}

	tmp := reflect.New(v.Type()).Elem()
	if err := ParseValue(payload, tmp); err != nil {
		return newInvalidPayloadError(payload, err)
	}
	v.Set(tmp)
	return nil
}

// Encode renders v and attaches the affix. It never fails for the primitive
// kinds. For a named type implementing encoding.TextMarshaler whose
// MarshalText fails, the result holds the affix alone; EncodeValue reports
// that error instead.
func Encode[T Scalar](c Codec, v T) string {
	return c.Attach(Format(v))
}

// Decode recovers a value from an affixed string. The returned error is an
// *Error of kind MissingAffix when the affix is absent, InvalidPayload when
// the payload does not parse as T.
func Decode[T Scalar](c Codec, s string) (T, error) {
	var zero T

	payload, err := c.Strip(s)
	if err != nil {
		return zero, err
	}

	v, err := Parse[T](payload)
	if err != nil {
		return zero, newInvalidPayloadError(payload, err)
	}
	return v, nil
}
