// Package services implements the driving port interfaces.
//
// The Scheduler owns background task execution, the Gateway decides per
// call whether a command runs inline or is queued, the Dispatcher turns
// loosely typed tool calls into gateway and host calls, and the
// SettingsService maps configuration onto settings snapshots.
//
// Services hold no global state: stores, hosts and notifiers are
// injected at construction and reached only through driven ports.
package services
