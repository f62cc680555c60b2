package driven

// Notifier surfaces operator-facing messages raised by the core.
type Notifier interface {
	// Info reports a routine event, such as a task completing.
	Info(message string)

	// Warn reports something the operator should know about,
	// such as queued tasks purged by a configuration change.
	Warn(message string)

	// Error reports a failure, such as a background command raising.
	Error(message string)
}
