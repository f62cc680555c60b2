// Package file provides filesystem-backed driven adapters.
//
// Adapters:
//   - ConfigStore: TOML configuration in <config-dir>/config.toml
//   - Watcher: reloads settings when the configuration file changes
package file
