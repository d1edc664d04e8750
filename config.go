package affix

import (
	"fmt"
	"os"
	"sort"

	"github.com/hengadev/errsx"
	"gopkg.in/yaml.v3"

	"github.com/hengadev/affix/internal/logging"
	"github.com/hengadev/affix/internal/serialization"
)

// Config describes a set of named codecs and the processor using them. It is
// usually loaded from YAML:
//
//	format: json
//	log_level: info
//	codecs:
//	  celsius:
//	    position: suffix
//	    text: "C"
//	  kek:
//	    position: suffix
//	    text: "_kek"
type Config struct {
	// Format is the document format: json, yaml, msgpack or gob.
	// Optional field. Default: json
	Format string `yaml:"format"`

	// LogLevel is one of debug, info, warn or error.
	// Optional field. Default: info
	LogLevel string `yaml:"log_level"`

	// Codecs maps registry names to codec definitions.
	Codecs map[string]CodecConfig `yaml:"codecs"`
}

// CodecConfig defines one named codec.
type CodecConfig struct {
	Position string `yaml:"position"`
	Text     string `yaml:"text"`
}

// Codec builds the codec described by cc.
func (cc CodecConfig) Codec() (Codec, error) {
	position, err := ParsePosition(cc.Position)
	if err != nil {
		return Codec{}, err
	}
	return New(cc.Text, position)
}

// DefaultConfig returns a configuration with no codecs and default values.
func DefaultConfig() Config {
	return Config{
		Format:   DefaultFormat,
		LogLevel: DefaultLogLevel,
		Codecs:   make(map[string]CodecConfig),
	}
}

// Validate applies defaults to optional fields and reports every problem
// found. The returned error wraps ErrInvalidConfiguration and an errsx.Map
// keyed by setting.
func (c *Config) Validate() error {
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	var errs errsx.Map
	if _, err := serialization.ParseFormat(c.Format); err != nil {
		errs.Set("format", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.Set("log_level", err)
	}
	for name, cc := range c.Codecs {
		if err := validateCodecName(name); err != nil {
			errs.Set("codecs."+name, err)
			continue
		}
		if _, err := cc.Codec(); err != nil {
			errs.Set("codecs."+name, err)
		}
	}

	if !errs.IsEmpty() {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, errs.AsError())
	}
	return nil
}

// Registry returns a new registry holding the configured codecs.
func (c Config) Registry() (*Registry, error) {
	names := make([]string, 0, len(c.Codecs))
	for name := range c.Codecs {
		names = append(names, name)
	}
	sort.Strings(names)

	reg := NewRegistry()
	for _, name := range names {
		codec, err := c.Codecs[name].Codec()
		if err != nil {
			return nil, fmt.Errorf("codec '%s': %w", name, err)
		}
		if err := reg.Register(name, codec); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Processor returns a processor using the configured format, codecs and
// log level. Extra options are applied after the configured ones.
func (c Config) Processor(opts ...ProcessorOption) (*Processor, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	format, _ := serialization.ParseFormat(c.Format)
	level, _ := logging.ParseLevel(c.LogLevel)

	reg, err := c.Registry()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{Level: level, Component: "processor"})
	base := []ProcessorOption{WithFormat(format), WithRegistry(reg), WithLogger(logger)}
	return NewProcessor(append(base, opts...)...)
}

// LoadConfig reads a YAML configuration file. The result is not validated.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML.
func SaveConfig(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
