package affix

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps names to codecs so struct tags can refer to a codec by name,
// for instance `affix:"celsius"`. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// DefaultRegistry is used by the package level Register, Lookup, Marshal and
// Unmarshal functions.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// Register adds a codec under name. Names cannot be empty, contain '=' or
// surrounding whitespace, and cannot be registered twice.
func (r *Registry) Register(name string, c Codec) error {
	if err := validateCodecName(name); err != nil {
		return err
	}
	if c.text == "" {
		return fmt.Errorf("codec '%s': %w", name, ErrEmptyAffix)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.codecs[name]; exists {
		return fmt.Errorf("%w: '%s'", ErrDuplicateCodec, name)
	}
	r.codecs[name] = c
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, c Codec) {
	if err := r.Register(name, c); err != nil {
		panic(fmt.Sprintf("affix: %v", err))
	}
}

func (r *Registry) Lookup(name string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.codecs[name]
	return c, ok
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codecs)
}

// Register adds a codec to DefaultRegistry.
func Register(name string, c Codec) error {
	return DefaultRegistry.Register(name, c)
}

// Lookup finds a codec in DefaultRegistry.
func Lookup(name string) (Codec, bool) {
	return DefaultRegistry.Lookup(name)
}

func validateCodecName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: codec name cannot be empty", ErrInvalidConfiguration)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: codec name '%s' has surrounding whitespace", ErrInvalidConfiguration, name)
	case strings.Contains(name, "="):
		return fmt.Errorf("%w: codec name '%s' cannot contain '='", ErrInvalidConfiguration, name)
	}
	return nil
}

// MustRegister adds a codec to DefaultRegistry and panics on error.
func MustRegister(name string, c Codec) {
	DefaultRegistry.MustRegister(name, c)
}
