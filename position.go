package affix

import "fmt"

// Position tells where the affix is attached to the textual form of a value.
type Position int8

const (
	Prefix Position = iota
	Suffix
)

func (p Position) String() string {
	switch p {
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	default:
		return fmt.Sprintf("Position(%d)", int8(p))
	}
}

// IsValid reports whether p is Prefix or Suffix.
func (p Position) IsValid() bool {
	return p == Prefix || p == Suffix
}

// ParsePosition parses "prefix" or "suffix". Matching is case-sensitive.
func ParsePosition(s string) (Position, error) {
	switch s {
	case "prefix":
		return Prefix, nil
	case "suffix":
		return Suffix, nil
	default:
		return 0, fmt.Errorf("%w '%s': must be one of [prefix, suffix]", ErrInvalidPosition, s)
	}
}

func (p Position) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, int8(p))
	}
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
