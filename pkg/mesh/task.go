package mesh

import (
	"context"
	"sync"
	"sync/atomic"
)

// Task is the handle of one consumer goroutine bound to an (agent, session)
// pair. It is created by Agent.StartSession and retained on the Session so the
// consumer can later be stopped and awaited.
type Task struct {
	agent   string
	session string

	ctx      context.Context
	cancel   context.CancelFunc
	notify   chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	dropped atomic.Int64
	err     error
}

func newTask(agent, session string) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	return &Task{
		agent:   agent,
		session: session,
		ctx:     ctx,
		cancel:  cancel,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Agent returns the owning agent name.
func (t *Task) Agent() string {
	return t.agent
}

// Session returns the session id the consumer drains.
func (t *Task) Session() string {
	return t.session
}

// Stop signals the consumer to terminate. The consumer drains and drops any
// messages still pending; an in-flight model call is cancelled. Stop does not
// wait, pair it with Wait.
func (t *Task) Stop() {
	t.stopOnce.Do(t.cancel)
}

// Wait blocks until the consumer goroutine has exited and returns the error
// captured from a consumer panic, if any.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Done reports whether the consumer goroutine has exited.
func (t *Task) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Dropped returns the number of messages that were discarded because the
// session was torn down before they could be processed.
func (t *Task) Dropped() int {
	return int(t.dropped.Load())
}

// wake nudges the consumer after an enqueue. Non-blocking; a single pending
// wakeup is enough because the consumer re-checks the queue before sleeping.
func (t *Task) wake() {
	select {
	case t.notify <- struct{}{}:
	default:
	}
}
