package mesh

import "errors"

var (
	// ErrAgentNotFound is returned when an agent name is not registered
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentExists is returned when an agent name is already registered
	ErrAgentExists = errors.New("agent already exists")

	// ErrNotConnected is returned when sender and recipient are not connected
	ErrNotConnected = errors.New("agents not connected")

	// ErrNoActiveSession is returned when routing requires an active session and none is set
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionNotFound is returned when a session id is unknown
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when a session id is already known
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionStopped is returned when an operation requires a running consumer
	ErrSessionStopped = errors.New("session stopped")

	// ErrSessionRunning is returned when an operation requires the consumer to be stopped
	ErrSessionRunning = errors.New("session still running")

	// ErrNoTasks is returned when waiting on a session that has no consumer tasks
	ErrNoTasks = errors.New("no tasks found for session")
)
