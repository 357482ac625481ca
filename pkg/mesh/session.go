package mesh

import "time"

// SessionEntry pairs a routed message with the response produced for it.
type SessionEntry struct {
	Message   Message   `json:"message"`
	Response  string    `json:"response,omitempty"`
	Answered  bool      `json:"answered"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSessionEntry creates an entry that has not been answered yet.
func NewSessionEntry(message Message) SessionEntry {
	return SessionEntry{
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewSessionEntryWithResponse creates an already-answered entry.
func NewSessionEntryWithResponse(message Message, response string) SessionEntry {
	return SessionEntry{
		Message:   message,
		Response:  response,
		Answered:  true,
		Timestamp: time.Now(),
	}
}

// SetResponse records the response. The response is set at most once;
// later calls are no-ops.
func (e *SessionEntry) SetResponse(response string) {
	if e.Answered {
		return
	}
	e.Response = response
	e.Answered = true
}

// Session is an ordered log of entries plus a FIFO queue of pending inbound
// messages. A Session is owned by exactly one Agent and is mutated only under
// that agent's session-map lock; it carries no lock of its own.
type Session struct {
	ID        string
	createdAt time.Time
	entries   []SessionEntry
	pending   []Message
	task      *Task
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		createdAt: time.Now(),
	}
}

// AddMessage appends an unanswered entry to the log.
func (s *Session) AddMessage(message Message) {
	s.entries = append(s.entries, NewSessionEntry(message))
}

// AddMessageWithResponse appends an answered entry to the log.
func (s *Session) AddMessageWithResponse(message Message, response string) {
	s.entries = append(s.entries, NewSessionEntryWithResponse(message, response))
}

// SetLastResponse sets the response on the most recent entry. No-op when the
// log is empty.
func (s *Session) SetLastResponse(response string) {
	if len(s.entries) == 0 {
		return
	}
	s.entries[len(s.entries)-1].SetResponse(response)
}

// Entries returns a copy of the session log.
func (s *Session) Entries() []SessionEntry {
	out := make([]SessionEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// EntryCount returns the number of log entries.
func (s *Session) EntryCount() int {
	return len(s.entries)
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Clear removes all log entries. Pending messages are untouched.
func (s *Session) Clear() {
	s.entries = nil
}

// PushMessage appends a message to the pending queue.
func (s *Session) PushMessage(message Message) {
	s.pending = append(s.pending, message)
}

// PopMessage removes and returns the oldest pending message.
func (s *Session) PopMessage() (Message, bool) {
	if len(s.pending) == 0 {
		return Message{}, false
	}
	msg := s.pending[0]
	s.pending = s.pending[1:]
	return msg, true
}

// QueueLen returns the number of pending messages.
func (s *Session) QueueLen() int {
	return len(s.pending)
}

// QueueEmpty reports whether the pending queue is empty.
func (s *Session) QueueEmpty() bool {
	return len(s.pending) == 0
}

// Task returns the consumer task handle, or nil when no consumer is running.
func (s *Session) Task() *Task {
	return s.task
}

// Snapshot returns a frozen copy of the session: log and queue contents are
// duplicated, the task handle is not carried over. A snapshot cannot be used
// to await or cancel processing.
func (s *Session) Snapshot() *Session {
	clone := &Session{
		ID:        s.ID,
		createdAt: s.createdAt,
		entries:   make([]SessionEntry, len(s.entries)),
		pending:   make([]Message, len(s.pending)),
	}
	copy(clone.entries, s.entries)
	copy(clone.pending, s.pending)
	return clone
}
