package mesh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generatorFunc adapts a plain function to the Generator interface.
type generatorFunc func(ctx context.Context, systemPrompt, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return f(ctx, systemPrompt, prompt)
}

// echoGenerator answers every prompt with a fixed reply and records the
// prompts it saw, in order.
type echoGenerator struct {
	mu      sync.Mutex
	reply   string
	prompts []string
}

func (g *echoGenerator) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, nil
}

func (g *echoGenerator) seen() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

func TestConsumer_ProcessesMessage(t *testing.T) {
	agent := NewAgent("Analyst", "You analyze data.")
	gen := &echoGenerator{reply: "analysis done"}

	require.NoError(t, agent.CreateSession("s1"))
	task, err := agent.StartSession("s1", gen)
	require.NoError(t, err)

	require.NoError(t, agent.SendMessage("s1", NewMessage("Researcher", "Analyst", "raw data")))

	require.Eventually(t, func() bool {
		snap, err := agent.GetSession("s1")
		return err == nil && snap.EntryCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	snap, err := agent.GetSession("s1")
	require.NoError(t, err)
	entry := snap.Entries()[0]
	assert.Equal(t, "raw data", entry.Message.Content)
	assert.True(t, entry.Answered)
	assert.Equal(t, "analysis done", entry.Response)
	assert.True(t, snap.QueueEmpty())

	task.Stop()
	require.NoError(t, task.Wait())
	assert.Equal(t, 0, task.Dropped())
}

func TestConsumer_FIFOOrder(t *testing.T) {
	agent := NewAgent("Analyst", "You analyze data.")
	gen := &echoGenerator{reply: "ok"}

	require.NoError(t, agent.CreateSession("s1"))
	task, err := agent.StartSession("s1", gen)
	require.NoError(t, err)

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, agent.SendMessage("s1", NewMessage("Researcher", "Analyst", content)))
	}

	require.Eventually(t, func() bool {
		snap, err := agent.GetSession("s1")
		return err == nil && snap.EntryCount() == 3
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"first", "second", "third"}, gen.seen())

	task.Stop()
	require.NoError(t, task.Wait())
}

func TestConsumer_GenerationFailureContinues(t *testing.T) {
	agent := NewAgent("Analyst", "You analyze data.")
	gen := generatorFunc(func(ctx context.Context, system, prompt string) (string, error) {
		if prompt == "bad" {
			return "", errors.New("model unavailable")
		}
		return "ok", nil
	})

	require.NoError(t, agent.CreateSession("s1"))
	task, err := agent.StartSession("s1", gen)
	require.NoError(t, err)

	require.NoError(t, agent.SendMessage("s1", NewMessage("R", "Analyst", "bad")))
	require.NoError(t, agent.SendMessage("s1", NewMessage("R", "Analyst", "good")))

	// The failed message is skipped, the next one is still processed.
	require.Eventually(t, func() bool {
		snap, err := agent.GetSession("s1")
		return err == nil && snap.EntryCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	snap, err := agent.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "good", snap.Entries()[0].Message.Content)

	task.Stop()
	require.NoError(t, task.Wait())
	assert.Equal(t, 0, task.Dropped())
}

func TestConsumer_TeardownDropsPending(t *testing.T) {
	agent := NewAgent("Analyst", "You analyze data.")

	started := make(chan struct{})
	var once sync.Once
	gen := generatorFunc(func(ctx context.Context, system, prompt string) (string, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return "", ctx.Err()
	})

	require.NoError(t, agent.CreateSession("s1"))
	task, err := agent.StartSession("s1", gen)
	require.NoError(t, err)

	for _, content := range []string{"one", "two", "three", "four"} {
		require.NoError(t, agent.SendMessage("s1", NewMessage("R", "Analyst", content)))
	}

	// The first message is in flight, three more sit in the queue.
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("generator never started")
	}

	_, err = agent.RemoveSession("s1")
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	// Three queued plus the cancelled in-flight call.
	assert.Equal(t, 4, task.Dropped())
}

func TestConsumer_PanicCaptured(t *testing.T) {
	agent := NewAgent("Analyst", "You analyze data.")
	gen := generatorFunc(func(ctx context.Context, system, prompt string) (string, error) {
		panic("model client blew up")
	})

	require.NoError(t, agent.CreateSession("s1"))
	task, err := agent.StartSession("s1", gen)
	require.NoError(t, err)

	require.NoError(t, agent.SendMessage("s1", NewMessage("R", "Analyst", "boom")))

	err = task.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Contains(t, err.Error(), "Analyst")
	assert.True(t, task.Done())
}

func TestConsumer_UsesRoleAsSystemPrompt(t *testing.T) {
	agent := NewAgent("Coordinator", "You coordinate the team.")

	got := make(chan string, 1)
	gen := generatorFunc(func(ctx context.Context, system, prompt string) (string, error) {
		got <- system
		return "ok", nil
	})

	require.NoError(t, agent.CreateSession("s1"))
	task, err := agent.StartSession("s1", gen)
	require.NoError(t, err)

	require.NoError(t, agent.SendMessage("s1", NewMessage("R", "Coordinator", "status?")))

	select {
	case system := <-got:
		assert.Equal(t, "You coordinate the team.", system)
	case <-time.After(5 * time.Second):
		t.Fatal("generator never called")
	}

	task.Stop()
	require.NoError(t, task.Wait())
}
