package affix

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// Decode errors
	ErrMissingAffix   = errors.New("missing affix")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrNotString      = errors.New("value is not a string")

	// Construction errors
	ErrEmptyAffix      = errors.New("affix text cannot be empty")
	ErrInvalidPosition = errors.New("invalid affix position")
	ErrInvalidTag      = errors.New("invalid affix tag")
	ErrUnknownCodec    = errors.New("unknown codec")
	ErrDuplicateCodec  = errors.New("codec already registered")

	// Processing errors
	ErrUnsupportedType      = errors.New("unsupported type")
	ErrInvalidTarget        = errors.New("invalid target")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrUnknownFormat        = errors.New("unknown format")
)

// Kind classifies the two ways a decode can fail.
type Kind int8

const (
	// MissingAffix means the input does not carry the affix at its position.
	MissingAffix Kind = iota + 1
	// InvalidPayload means the affix was found and removed but the rest does
	// not parse into the target type.
	InvalidPayload
)

func (k Kind) String() string {
	switch k {
	case MissingAffix:
		return "missing affix"
	case InvalidPayload:
		return "invalid payload"
	default:
		return "unknown"
	}
}

const (
	expectPrefix  = "string with a proper prefix"
	expectSuffix  = "string with a proper suffix"
	expectPayload = "string parsable to the native type"
)

// Error is returned by every decode operation. Value holds the unexpected
// string: the whole input for MissingAffix, the payload with the affix
// already removed for InvalidPayload.
type Error struct {
	Kind     Kind
	Value    string
	Expected string
	// Err is the parser failure behind an InvalidPayload, if any.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid value: string %s, expected %s", strconv.Quote(e.Value), e.Expected)
}

// Is reports whether target is the sentinel matching the error kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case MissingAffix:
		return target == ErrMissingAffix
	case InvalidPayload:
		return target == ErrInvalidPayload
	default:
		return false
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newMissingAffixError(input string, position Position) *Error {
	expected := expectPrefix
	if position == Suffix {
		expected = expectSuffix
	}
	return &Error{Kind: MissingAffix, Value: input, Expected: expected}
}

func newInvalidPayloadError(payload string, cause error) *Error {
	return &Error{Kind: InvalidPayload, Value: payload, Expected: expectPayload, Err: cause}
}

func NewUnsupportedTypeError(fieldName string, typeName string) error {
	return fmt.Errorf("%w: field '%s' has unsupported type %s for affix encoding",
		ErrUnsupportedType, fieldName, typeName)
}

func NewInvalidTagError(tag string, details string) error {
	return fmt.Errorf("%w '%s': %s", ErrInvalidTag, tag, details)
}

func NewUnknownCodecError(name string) error {
	return fmt.Errorf("%w '%s'", ErrUnknownCodec, name)
}

// IsDecodeError returns true if the error is a missing affix or an
// unparsable payload.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrMissingAffix) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrNotString)
}

// IsConfigurationError returns true if the error comes from a bad codec,
// tag, registry or configuration rather than from input data.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrEmptyAffix) ||
		errors.Is(err, ErrInvalidPosition) ||
		errors.Is(err, ErrInvalidTag) ||
		errors.Is(err, ErrUnknownCodec) ||
		errors.Is(err, ErrDuplicateCodec) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrUnknownFormat)
}
