package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory driven.ConfigStore for tests.
//
// It models a config file that can change underneath the process:
// Set writes through immediately, while Stage records an edit that only
// becomes visible on the next Load, the way an operator's edit to the
// TOML file only takes effect on refresh.
type ConfigStore struct {
	mu      sync.RWMutex
	values  map[string]any
	staged  map[string]any
	removed map[string]bool
	loadErr error
	loads   int
}

// NewConfigStore creates an in-memory config store seeded with values.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	s := &ConfigStore{
		values:  make(map[string]any),
		staged:  make(map[string]any),
		removed: make(map[string]bool),
	}
	for _, m := range seed {
		maps.Copy(s.values, m)
	}
	return s
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	str, _ := s.get(key).(string)
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	switch v := s.get(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	b, _ := s.get(key).(bool)
	return b
}

// GetStringSlice retrieves a string slice configuration value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	switch v := s.get(key).(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

func (s *ConfigStore) get(key string) any {
	val, _ := s.Get(key)
	return val
}

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Stage records a value that becomes visible on the next Load.
func (s *ConfigStore) Stage(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.removed, key)
	s.staged[key] = value
}

// Unstage records a key removal that takes effect on the next Load.
func (s *ConfigStore) Unstage(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staged, key)
	s.removed[key] = true
}

// FailLoad makes subsequent Load calls return err. Pass nil to clear.
func (s *ConfigStore) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// Loads returns how many times Load has succeeded.
func (s *ConfigStore) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

// Save persists the current configuration (no-op for memory store).
func (s *ConfigStore) Save() error {
	return nil
}

// Load applies staged edits.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return s.loadErr
	}

	for key := range s.removed {
		delete(s.values, key)
	}
	maps.Copy(s.values, s.staged)
	clear(s.staged)
	clear(s.removed)
	s.loads++
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return ":memory:"
}
