package driven

// ConfigStore provides access to application configuration.
//
// Keys are dot-separated paths into the TOML document, so the
// "mode" field of the [execution] table is "execution.mode". Arrays of
// tables such as [[host.commands]] are returned by Get as []any holding
// map[string]any entries.
type ConfigStore interface {
	// Get retrieves a raw configuration value by key.
	Get(key string) (any, bool)

	// GetString returns "" if the key is missing or not a string.
	GetString(key string) string

	// GetInt returns 0 if the key is missing or not a whole number.
	GetInt(key string) int

	// GetBool returns false if the key is missing or not a boolean.
	GetBool(key string) bool

	// GetStringSlice returns a copy of a string list, or nil.
	GetStringSlice(key string) []string

	// Set stores a value and persists the configuration.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load re-reads configuration from storage. On a parse error the
	// previously loaded values are kept and the error is returned.
	Load() error

	// Path returns the backing file, or "" for in-memory stores.
	Path() string
}
