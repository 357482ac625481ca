package mesh

import (
	"fmt"
	"time"

	"github.com/adilans/parley/internal/observability"
	"github.com/rs/zerolog/log"
)

// consume is the consumer loop for one (agent, session) pair. It dequeues
// pending messages in FIFO order, calls the generator with the agent's role as
// system prompt, and records message+response into the session log.
//
// The loop terminates when the task is stopped or the session disappears from
// the agent's session map. On stop, pending messages are drained and counted
// as dropped; an in-flight model call is cancelled through the task context.
// No lock is held while the model call is in progress.
func (a *Agent) consume(task *Task, gen Generator) {
	defer close(task.done)
	defer func() {
		if r := recover(); r != nil {
			task.err = fmt.Errorf("consumer for agent %q session %q panicked: %v", a.Name, task.session, r)
			log.Error().
				Str("agent", a.Name).
				Str("session", task.session).
				Interface("panic", r).
				Msg("Consumer panicked")
		}
	}()

	for {
		select {
		case <-task.ctx.Done():
			task.dropped.Add(int64(a.drainPending(task.session)))
			a.logStop(task)
			return
		default:
		}

		msg, ok, alive := a.popPending(task.session)
		if !alive {
			// Session evicted without an explicit stop. Nothing left to drain.
			a.logStop(task)
			return
		}
		if !ok {
			select {
			case <-task.ctx.Done():
				task.dropped.Add(int64(a.drainPending(task.session)))
				a.logStop(task)
				return
			case <-task.notify:
			}
			continue
		}

		log.Debug().
			Str("agent", a.Name).
			Str("session", task.session).
			Str("from", msg.From).
			Msg("Processing message")

		start := time.Now()
		response, err := gen.Generate(task.ctx, a.Role, msg.Content)
		duration := time.Since(start)

		if err != nil {
			observability.RecordProcessed(a.Name, duration, false)
			if task.ctx.Err() != nil {
				// Cancelled mid-call; the message cannot be recorded anymore.
				task.dropped.Add(1)
			}
			log.Error().
				Str("agent", a.Name).
				Str("session", task.session).
				Str("from", msg.From).
				Err(err).
				Msg("Generation failed")
			continue
		}

		observability.RecordProcessed(a.Name, duration, true)

		if !a.recordExchange(task.session, msg, response) {
			// Session removed while the call was in flight.
			task.dropped.Add(1)
			log.Warn().
				Str("agent", a.Name).
				Str("session", task.session).
				Msg("Session gone, response discarded")
		}
	}
}

// popPending dequeues the oldest pending message. alive is false when the
// session no longer exists in the agent's session map.
func (a *Agent) popPending(sessionID string) (msg Message, ok, alive bool) {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()

	session, exists := a.sessions[sessionID]
	if !exists {
		return Message{}, false, false
	}
	msg, ok = session.PopMessage()
	if ok {
		observability.SetQueueDepth(a.Name, session.QueueLen())
	}
	return msg, ok, true
}

// drainPending discards all remaining pending messages and returns the count.
func (a *Agent) drainPending(sessionID string) int {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()

	session, exists := a.sessions[sessionID]
	if !exists {
		return 0
	}
	n := session.QueueLen()
	session.pending = nil
	observability.SetQueueDepth(a.Name, 0)
	return n
}

// recordExchange appends the message with its response to the session log.
// Returns false when the session no longer exists.
func (a *Agent) recordExchange(sessionID string, msg Message, response string) bool {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()

	session, exists := a.sessions[sessionID]
	if !exists {
		return false
	}
	session.AddMessageWithResponse(msg, response)
	return true
}

func (a *Agent) logStop(task *Task) {
	dropped := task.Dropped()
	observability.RecordDropped(a.Name, dropped)
	log.Debug().
		Str("agent", a.Name).
		Str("session", task.session).
		Int("dropped", dropped).
		Msg("Consumer stopped")
}
