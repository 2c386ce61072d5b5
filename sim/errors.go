package sim

import "errors"

// Sentinel errors for the simulation core. Callers match them with
// errors.Is; most sites wrap them with fmt.Errorf("...: %w", ...) for
// context.
var (
	// ErrInvalidArgument marks programmer misuse: negative delays,
	// non-positive intervals, running a shut-down scheduler.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyRunning is returned by Run while a run loop is active.
	ErrAlreadyRunning = errors.New("scheduler already running")

	// ErrDelayUnavailable is returned by the simulated transport when no
	// delay is configured for a destination.
	ErrDelayUnavailable = errors.New("delay unavailable")

	// ErrShutdownTimeout is returned when the routing collaborator does not
	// acknowledge shutdown within the bounded wait.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)
