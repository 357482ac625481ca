package mesh

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/adilans/parley/internal/observability"
	"github.com/rs/zerolog/log"
)

// Generator produces a model response for a routed message. It is the only
// capability the consumer task needs from the text-generation service.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Agent is a named participant with a role prompt, a set of peer connections
// and a map of sessions. Connections and sessions are guarded by separate
// locks; neither lock is ever held across a model call.
type Agent struct {
	Name string
	Role string

	connMu      sync.Mutex
	connections map[string]struct{}

	sessMu   sync.Mutex
	sessions map[string]*Session
}

// NewAgent creates an agent with the given name and role prompt.
func NewAgent(name, role string) *Agent {
	return &Agent{
		Name:        name,
		Role:        role,
		connections: make(map[string]struct{}),
		sessions:    make(map[string]*Session),
	}
}

// ConnectTo records a connection to another agent by name.
func (a *Agent) ConnectTo(name string) {
	a.connMu.Lock()
	defer a.connMu.Unlock()
	a.connections[name] = struct{}{}
}

// DisconnectFrom removes a connection. Idempotent.
func (a *Agent) DisconnectFrom(name string) {
	a.connMu.Lock()
	defer a.connMu.Unlock()
	delete(a.connections, name)
}

// IsConnectedTo reports whether a connection to name exists.
func (a *Agent) IsConnectedTo(name string) bool {
	a.connMu.Lock()
	defer a.connMu.Unlock()
	_, ok := a.connections[name]
	return ok
}

// Connections returns sorted connected agent names.
func (a *Agent) Connections() []string {
	a.connMu.Lock()
	defer a.connMu.Unlock()

	names := make([]string, 0, len(a.connections))
	for name := range a.connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateSession creates an empty session for this agent.
func (a *Agent) CreateSession(id string) error {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()

	if _, exists := a.sessions[id]; exists {
		return fmt.Errorf("agent %q: session %q: %w", a.Name, id, ErrSessionExists)
	}
	a.sessions[id] = NewSession(id)
	return nil
}

// SendMessage enqueues a message into the pending queue of the given session
// and wakes the consumer, if one is running.
func (a *Agent) SendMessage(sessionID string, message Message) error {
	a.sessMu.Lock()
	session, ok := a.sessions[sessionID]
	if !ok {
		a.sessMu.Unlock()
		return fmt.Errorf("agent %q: session %q: %w", a.Name, sessionID, ErrSessionNotFound)
	}
	session.PushMessage(message)
	depth := session.QueueLen()
	task := session.task
	a.sessMu.Unlock()

	observability.RecordEnqueue(a.Name, depth)
	if task != nil {
		task.wake()
	}

	log.Debug().
		Str("agent", a.Name).
		Str("session", sessionID).
		Str("from", message.From).
		Int("queue_depth", depth).
		Msg("Message enqueued")

	return nil
}

// StartSession spawns the consumer task for the given session and stores its
// handle on the session. The handle is also returned so callers can stop and
// await the consumer.
func (a *Agent) StartSession(sessionID string, gen Generator) (*Task, error) {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()

	session, ok := a.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("agent %q: session %q: %w", a.Name, sessionID, ErrSessionNotFound)
	}
	if session.task != nil && !session.task.Done() {
		return nil, fmt.Errorf("agent %q: session %q: %w", a.Name, sessionID, ErrSessionRunning)
	}

	task := newTask(a.Name, sessionID)
	session.task = task
	go a.consume(task, gen)

	log.Debug().
		Str("agent", a.Name).
		Str("session", sessionID).
		Msg("Consumer started")

	return task, nil
}

// RemoveSession evicts a session and signals its consumer to stop. The evicted
// session, including its terminal log, is returned. The consumer is not
// awaited; use the task handle for that.
func (a *Agent) RemoveSession(sessionID string) (*Session, error) {
	a.sessMu.Lock()
	session, ok := a.sessions[sessionID]
	if !ok {
		a.sessMu.Unlock()
		return nil, fmt.Errorf("agent %q: session %q: %w", a.Name, sessionID, ErrSessionNotFound)
	}
	delete(a.sessions, sessionID)
	a.sessMu.Unlock()

	if session.task != nil {
		// Pending messages leave the map with the session; account for them
		// here because the consumer can no longer reach them to drain.
		session.task.dropped.Add(int64(session.QueueLen()))
		session.task.Stop()
	}
	observability.SetQueueDepth(a.Name, 0)

	return session, nil
}

// GetSession returns a frozen snapshot of a session (no task handle).
func (a *Agent) GetSession(sessionID string) (*Session, error) {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()

	session, ok := a.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("agent %q: session %q: %w", a.Name, sessionID, ErrSessionNotFound)
	}
	return session.Snapshot(), nil
}

// ListSessions returns sorted session ids known to this agent.
func (a *Agent) ListSessions() []string {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()

	ids := make([]string, 0, len(a.sessions))
	for id := range a.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// sessionTask returns the consumer handle for a session, or nil.
func (a *Agent) sessionTask(sessionID string) *Task {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()

	session, ok := a.sessions[sessionID]
	if !ok {
		return nil
	}
	return session.task
}
