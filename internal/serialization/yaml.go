package serialization

import (
	"gopkg.in/yaml.v3"
)

// YAMLEngine implements the Engine interface using gopkg.in/yaml.v3. Field
// names follow the `yaml` struct tags; untagged fields are lowercased by the
// yaml package.
type YAMLEngine struct{}

func (YAMLEngine) Format() Format {
	return YAML
}

func (YAMLEngine) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAMLEngine) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}
