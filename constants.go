package affix

// Environment variable names
const (
	// EnvConfig is the environment variable holding the path of a YAML
	// configuration file.
	EnvConfig = "AFFIX_CONFIG"

	// EnvFormat overrides the document format of the configuration.
	// Example: "json", "yaml", "msgpack" or "gob"
	EnvFormat = "AFFIX_FORMAT"

	// EnvLogLevel overrides the log level of the configuration.
	// Example: "debug"
	EnvLogLevel = "AFFIX_LOG_LEVEL"
)

// Default values
const (
	// DefaultFormat is the document format used when none is configured.
	DefaultFormat = "json"

	// DefaultLogLevel is the log level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultEnvFile is the dotenv file read by LoadConfigFromEnvironment.
	DefaultEnvFile = ".env"
)
