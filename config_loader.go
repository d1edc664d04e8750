package affix

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadConfigFromEnvironment loads configuration from environment variables.
//
// Variables already present in the environment win over the ones found in
// the optional DefaultEnvFile. The configuration is built in three steps:
//
//   - AFFIX_CONFIG: YAML file to start from (default: DefaultConfig)
//   - AFFIX_FORMAT: overrides the document format
//   - AFFIX_LOG_LEVEL: overrides the log level
//
// The result is validated before being returned.
//
// Example usage:
//
//	// export AFFIX_CONFIG="/etc/affix/codecs.yaml"
//	// export AFFIX_FORMAT="yaml"
//
//	cfg, err := affix.LoadConfigFromEnvironment()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	proc, err := cfg.Processor()
func LoadConfigFromEnvironment() (Config, error) {
	return loadConfigFromEnvironment(DefaultEnvFile)
}

func loadConfigFromEnvironment(envFile string) (Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := DefaultConfig()
	if path := os.Getenv(EnvConfig); path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	if format := os.Getenv(EnvFormat); format != "" {
		cfg.Format = format
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
