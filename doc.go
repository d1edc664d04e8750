// Package affix serializes scalar field values as strings carrying a fixed
// prefix or suffix, and parses them back by stripping that affix.
//
// A value such as 123 written with the suffix "_kek" becomes "123_kek"; the
// temperature -12.3 written with the suffix "C" becomes "-12.3C". Reading
// "-12.3C" back checks that the string ends with "C", removes exactly that one
// occurrence and parses "-12.3" as the field type.
//
// # Codecs
//
// A Codec holds one affix text and one Position, both fixed at construction:
//
//	celsius := affix.MustNew("C", affix.Suffix)
//
//	s := affix.Encode(celsius, float32(-12.3))   // "-12.3C"
//	v, err := affix.Decode[float32](celsius, s)  // -12.3, nil
//
// Matching is exact and case-sensitive and only looks at the start (prefix)
// or the end (suffix) of the input; the interior is never searched, so a
// payload may itself contain the affix text.
//
// # Errors
//
// Decoding fails in exactly two ways, both reported as *Error:
//
//   - MissingAffix: the affix is not at its position. Error.Value holds the
//     whole input, and errors.Is(err, ErrMissingAffix) holds.
//   - InvalidPayload: the payload left after stripping does not parse as the
//     target type. Error.Value holds that payload, and
//     errors.Is(err, ErrInvalidPayload) holds.
//
// The message follows the familiar "invalid value: string "12", expected
// string with a proper prefix" form.
//
// # Binding codecs to fields
//
// With generic fields, the affix is named by a marker type and every
// serialization framework using the json, yaml.v3, msgpack, gob or
// encoding.TextMarshaler hooks sees a single string:
//
//	type Kek struct{}
//
//	func (Kek) Affix() affix.Codec { return kek }
//
//	var kek = affix.MustNew("_kek", affix.Suffix)
//
//	type Keys struct {
//	    Key1 affix.Field[uint32, Kek] `json:"key1"`
//	    Key2 affix.Field[int64, Kek]  `json:"key2"`
//	}
//
//	// json.Marshal gives {"key1":"123_kek","key2":"456_kek"}
//
// With struct tags, plain scalar fields are handled by a Processor:
//
//	type Reading struct {
//	    Code        uint8   `json:"code" affix:"prefix=A"`
//	    Temperature float32 `json:"temperature" affix:"celsius"`
//	}
//
//	affix.MustRegister("celsius", celsius)
//	data, err := affix.Marshal(Reading{Code: 12, Temperature: -12.3})
//	// {"code":"A12","temperature":"-12.3C"}
//
// Named tags are resolved through a Registry, which can also be built from a
// YAML Config. Processors support the json, yaml, msgpack and gob formats.
//
// # Concurrency
//
// Codecs, fields and the encode/decode functions are pure and safe for
// concurrent use. Registry and Processor are safe for concurrent use.
package affix
