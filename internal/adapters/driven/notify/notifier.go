// Package notify provides driven.Notifier implementations.
package notify

import (
	"sync"

	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// Ensure implementations satisfy the interface.
var (
	_ driven.Notifier = (*LogNotifier)(nil)
	_ driven.Notifier = (*Fanout)(nil)
)

// LogNotifier writes notifications to the process log.
// Info messages only appear in verbose mode.
type LogNotifier struct{}

// Info logs a routine event.
func (LogNotifier) Info(message string) {
	logger.Info("%s", message)
}

// Warn logs a warning.
func (LogNotifier) Warn(message string) {
	logger.Warn("%s", message)
}

// Error logs a failure.
func (LogNotifier) Error(message string) {
	logger.Error("%s", message)
}

// Fanout delivers every notification to each registered notifier.
// Notifiers can be added after construction, so front-ends created
// later than the core can still receive task events.
type Fanout struct {
	mu        sync.RWMutex
	notifiers []driven.Notifier
}

// NewFanout creates a fanout over the given notifiers.
func NewFanout(notifiers ...driven.Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

// Add registers another notifier.
func (f *Fanout) Add(n driven.Notifier) {
	if n == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifiers = append(f.notifiers, n)
}

// Info delivers a routine event.
func (f *Fanout) Info(message string) {
	f.each(func(n driven.Notifier) { n.Info(message) })
}

// Warn delivers a warning.
func (f *Fanout) Warn(message string) {
	f.each(func(n driven.Notifier) { n.Warn(message) })
}

// Error delivers a failure.
func (f *Fanout) Error(message string) {
	f.each(func(n driven.Notifier) { n.Error(message) })
}

func (f *Fanout) each(fn func(driven.Notifier)) {
	f.mu.RLock()
	notifiers := append([]driven.Notifier(nil), f.notifiers...)
	f.mu.RUnlock()

	for _, n := range notifiers {
		fn(n)
	}
}
