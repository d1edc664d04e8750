package serialization

// Engine renders a whole document in one wire format. The affix processor
// hands it a shadow struct whose affixed fields are already plain strings, so
// an engine never needs to know about affixes.
type Engine interface {
	// Format returns the name of the format produced by the engine.
	Format() Format

	// Marshal returns the bytes of v encoded in the engine format.
	Marshal(v any) ([]byte, error)

	// Unmarshal populates v, which must be a pointer, from data.
	Unmarshal(data []byte, v any) error
}
