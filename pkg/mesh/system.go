package mesh

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/adilans/parley/internal/observability"
	"github.com/rs/zerolog/log"
)

// System is the registry owning all agents, the set of known session ids and
// the single globally active session id. One coarse lock guards the registry
// maps, so the System is safe for concurrent callers.
type System struct {
	mu       sync.RWMutex
	agents   map[string]*Agent
	sessions map[string]struct{}
	active   string
	gen      Generator
}

// NewSystem creates an empty registry. The generator is handed to every
// consumer task spawned by CreateSession.
func NewSystem(gen Generator) *System {
	observability.EnsureRegistered()
	return &System{
		agents:   make(map[string]*Agent),
		sessions: make(map[string]struct{}),
		gen:      gen,
	}
}

// AddAgent registers an agent. Agents registered after a session was created
// do not receive that session.
func (s *System) AddAgent(agent *Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agents[agent.Name]; exists {
		return fmt.Errorf("agent %q: %w", agent.Name, ErrAgentExists)
	}
	s.agents[agent.Name] = agent
	observability.SetRegisteredAgents(len(s.agents))

	log.Info().Str("agent", agent.Name).Msg("Agent registered")
	return nil
}

// RemoveAgent unregisters an agent after purging every other agent's
// back-reference to it. Running consumer tasks of the removed agent are not
// stopped; tear its sessions down separately.
func (s *System) RemoveAgent(name string) (*Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, exists := s.agents[name]
	if !exists {
		return nil, fmt.Errorf("agent %q: %w", name, ErrAgentNotFound)
	}

	for _, other := range s.agents {
		if other.Name != name {
			other.DisconnectFrom(name)
		}
	}
	delete(s.agents, name)
	observability.SetRegisteredAgents(len(s.agents))

	log.Info().Str("agent", name).Msg("Agent removed")
	return agent, nil
}

// GetAgent returns a registered agent by name.
func (s *System) GetAgent(name string) (*Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agent, ok := s.agents[name]
	return agent, ok
}

// ListAgents returns all registered agents sorted by name.
func (s *System) ListAgents() []*Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]*Agent, 0, len(s.agents))
	for _, agent := range s.agents {
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents
}

// ConnectAgents connects two agents bidirectionally.
func (s *System) ConnectAgents(a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agentA, ok := s.agents[a]
	if !ok {
		return fmt.Errorf("agent %q: %w", a, ErrAgentNotFound)
	}
	agentB, ok := s.agents[b]
	if !ok {
		return fmt.Errorf("agent %q: %w", b, ErrAgentNotFound)
	}

	agentA.ConnectTo(b)
	agentB.ConnectTo(a)

	log.Debug().Str("a", a).Str("b", b).Msg("Agents connected")
	return nil
}

// DisconnectAgents disconnects two agents bidirectionally. Idempotent:
// unknown names and absent connections are ignored.
func (s *System) DisconnectAgents(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agentA, ok := s.agents[a]; ok {
		agentA.DisconnectFrom(b)
	}
	if agentB, ok := s.agents[b]; ok {
		agentB.DisconnectFrom(a)
	}
}

// CreateSession creates a session with the given id inside every registered
// agent and spawns one consumer task per agent. The first session created
// becomes the active session.
func (s *System) CreateSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return fmt.Errorf("session %q: %w", id, ErrSessionExists)
	}

	for _, agent := range s.agents {
		if err := agent.CreateSession(id); err != nil {
			log.Warn().Str("agent", agent.Name).Str("session", id).Err(err).Msg("Session create skipped")
			continue
		}
		if _, err := agent.StartSession(id, s.gen); err != nil {
			log.Error().Str("agent", agent.Name).Str("session", id).Err(err).Msg("Consumer start failed")
		}
	}

	s.sessions[id] = struct{}{}
	if s.active == "" {
		s.active = id
	}
	observability.SetActiveSessions(len(s.sessions))

	log.Info().Str("session", id).Int("agents", len(s.agents)).Msg("Session created")
	return nil
}

// SetActiveSession switches the active session pointer.
func (s *System) SetActiveSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	s.active = id
	return nil
}

// ActiveSession returns the active session id, empty when none is set.
func (s *System) ActiveSession() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SessionIDs returns the sorted set of known session ids.
func (s *System) SessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SendMessage routes a message from one agent to a connected agent. The
// message lands in the recipient's queue for the active session; processing is
// asynchronous, so the constructed message is returned, not the response.
func (s *System) SendMessage(from, to, content string) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sender, ok := s.agents[from]
	if !ok {
		return Message{}, fmt.Errorf("sender %q: %w", from, ErrAgentNotFound)
	}
	recipient, ok := s.agents[to]
	if !ok {
		return Message{}, fmt.Errorf("recipient %q: %w", to, ErrAgentNotFound)
	}
	if !sender.IsConnectedTo(to) {
		return Message{}, fmt.Errorf("%q -> %q: %w", from, to, ErrNotConnected)
	}
	if s.active == "" {
		return Message{}, fmt.Errorf("sender %q: %w", from, ErrNoActiveSession)
	}

	message := NewMessage(from, to, content)
	if err := recipient.SendMessage(s.active, message); err != nil {
		return Message{}, err
	}
	return message, nil
}

// SendBroadcast routes a message from one agent to each of its connections
// that is registered and has the active session. Connections without the
// session are silently skipped. The enqueued messages are returned.
func (s *System) SendBroadcast(from, content string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sender, ok := s.agents[from]
	if !ok {
		return nil, fmt.Errorf("sender %q: %w", from, ErrAgentNotFound)
	}

	sent := make([]Message, 0)
	if s.active == "" {
		return sent, nil
	}

	for _, name := range sender.Connections() {
		recipient, ok := s.agents[name]
		if !ok {
			continue
		}
		message := NewMessage(from, name, content)
		if err := recipient.SendMessage(s.active, message); err != nil {
			log.Debug().Str("agent", name).Str("session", s.active).Err(err).Msg("Broadcast recipient skipped")
			continue
		}
		sent = append(sent, message)
	}
	return sent, nil
}

// RemoveSession evicts the session from every agent (best effort), drops the
// id from the registry and clears the active pointer if it matched. Consumer
// tasks are signalled to stop but not awaited; use WaitForSessionTasks for a
// joined teardown.
func (s *System) RemoveSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeSessionLocked(id)
}

func (s *System) removeSessionLocked(id string) {
	for _, agent := range s.agents {
		if _, err := agent.RemoveSession(id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Warn().Str("agent", agent.Name).Str("session", id).Err(err).Msg("Session removal failed")
		}
	}
	delete(s.sessions, id)
	if s.active == id {
		s.active = ""
	}
	observability.SetActiveSessions(len(s.sessions))

	log.Info().Str("session", id).Msg("Session removed")
}

// WaitForSessionTasks tears the session down and joins every consumer task
// that was running for it. It returns the total number of messages dropped
// during teardown and, when consumers panicked, their failures joined into a
// single error. Tasks that completed cleanly are unaffected by sibling
// failures.
func (s *System) WaitForSessionTasks(id string) (int, error) {
	s.mu.Lock()

	var tasks []*Task
	for _, agent := range s.agents {
		if task := agent.sessionTask(id); task != nil {
			tasks = append(tasks, task)
		}
	}
	if len(tasks) == 0 {
		s.mu.Unlock()
		return 0, fmt.Errorf("session %q: %w", id, ErrNoTasks)
	}

	// Removal is the termination signal for every collected task.
	s.removeSessionLocked(id)
	s.mu.Unlock()

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task *Task) {
			defer wg.Done()
			errs[i] = task.Wait()
		}(i, task)
	}
	wg.Wait()

	dropped := 0
	for _, task := range tasks {
		dropped += task.Dropped()
	}

	log.Info().
		Str("session", id).
		Int("tasks", len(tasks)).
		Int("dropped", dropped).
		Msg("Session tasks finished")

	return dropped, errors.Join(errs...)
}
