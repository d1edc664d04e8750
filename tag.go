package affix

import (
	"strings"
)

// StructTag is the struct tag key read by the processor and by the static
// tag validator.
const StructTag = "affix"

// ParseTag resolves an affix struct tag value into a codec. Two forms exist:
//
//	affix:"prefix=A"     inline codec, the text is everything after the first '='
//	affix:"celsius"      codec registered under that name in reg
//
// reg may be nil when only inline codecs are expected.
func ParseTag(tag string, reg *Registry) (Codec, error) {
	if tag == "" {
		return Codec{}, NewInvalidTagError(tag, "tag is empty")
	}

	position, text, inline := strings.Cut(tag, "=")
	if !inline {
		if reg == nil {
			return Codec{}, NewUnknownCodecError(tag)
		}
		c, ok := reg.Lookup(tag)
		if !ok {
			return Codec{}, NewUnknownCodecError(tag)
		}
		return c, nil
	}

	p, err := ParsePosition(position)
	if err != nil {
		return Codec{}, NewInvalidTagError(tag, "position must be 'prefix' or 'suffix'")
	}
	if text == "" {
		return Codec{}, NewInvalidTagError(tag, "affix text cannot be empty")
	}
	return New(text, p)
}
