package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/sales-copilot/internal/agent"
	"github.com/MimeLyc/sales-copilot/internal/memory"
	"github.com/MimeLyc/sales-copilot/internal/persistence"
	"github.com/MimeLyc/sales-copilot/internal/tools"
)

type countingStore struct {
	*persistence.SQLiteStore
	loads atomic.Int32
}

func (c *countingStore) LoadTurns(ctx context.Context, id string) ([]memory.Turn, error) {
	c.loads.Add(1)
	time.Sleep(20 * time.Millisecond)
	return c.SQLiteStore.LoadTurns(ctx, id)
}

func newStore(t *testing.T) *countingStore {
	t.Helper()
	store, err := persistence.NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return &countingStore{SQLiteStore: store}
}

// echoFactory answers every request with "echo: <input>"
func echoFactory(mem *memory.Log) *agent.Agent {
	decider := agent.DeciderFunc(func(_ context.Context, d agent.Decision) (agent.Action, error) {
		return agent.Action{Kind: agent.ActionFinalAnswer, Answer: `{"result":"echo: ` + d.Input + `"}`}, nil
	})
	return agent.NewAgent(decider, tools.NewRegistry(), mem, agent.Options{})
}

func TestSession_AskPersistsAndRestores(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	m := NewManager(store, echoFactory, "gpt-4o-mini")
	s, err := m.Open(ctx, "acme-call")
	require.NoError(t, err)
	assert.Equal(t, "acme-call", s.ID())

	answer, err := s.Ask(ctx, "  first  ")
	require.NoError(t, err)
	assert.Equal(t, "echo: first", answer)
	_, err = s.Ask(ctx, "second")
	require.NoError(t, err)

	history := s.History()
	require.Len(t, history, 4)
	assert.Equal(t, "human", history[0].Role)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.NotEmpty(t, history[1].ID)
	assert.False(t, history[1].Timestamp.IsZero())
	assert.Equal(t, "echo: second", s.LastAnswer())

	// a fresh manager restores the log from the store
	restored, err := NewManager(store, echoFactory, "").Open(ctx, "acme-call")
	require.NoError(t, err)
	assert.Len(t, restored.History(), 4)

	sessions, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 4, sessions[0].TurnCount)
	assert.Equal(t, "gpt-4o-mini", sessions[0].Model)
}

func TestSession_Clear(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	s, err := NewManager(store, echoFactory, "").Open(ctx, "s")
	require.NoError(t, err)
	_, err = s.Ask(ctx, "hello")
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.History())
	assert.Empty(t, s.LastAnswer())

	turns, err := store.SQLiteStore.LoadTurns(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, turns)

	_, err = s.Ask(ctx, "again")
	require.NoError(t, err)
	assert.Len(t, s.History(), 2)
}

func TestSession_EmptyRequest(t *testing.T) {
	s, err := NewManager(nil, echoFactory, "").Open(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())

	_, err = s.Ask(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSession_FailedRunStillPersistsTurns(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	failing := func(mem *memory.Log) *agent.Agent {
		decider := agent.DeciderFunc(func(context.Context, agent.Decision) (agent.Action, error) {
			return agent.Action{}, errors.New("provider outage")
		})
		return agent.NewAgent(decider, tools.NewRegistry(), mem, agent.Options{})
	}

	s, err := NewManager(store, failing, "").Open(ctx, "s")
	require.NoError(t, err)
	_, err = s.Ask(ctx, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider outage")

	turns, err := store.SQLiteStore.LoadTurns(ctx, "s")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, memory.KindHuman, turns[0].Kind)
}

func TestManager_ConcurrentOpenLoadsOnce(t *testing.T) {
	store := newStore(t)
	m := NewManager(store, echoFactory, "")

	var wg sync.WaitGroup
	sessions := make([]*Session, 10)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Open(context.Background(), "shared")
			assert.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), store.loads.Load())
	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
}

func TestManager_NoStore(t *testing.T) {
	m := NewManager(nil, echoFactory, "")
	s, err := m.Open(context.Background(), "mem-only")
	require.NoError(t, err)

	answer, err := s.Ask(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", answer)

	list, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestManager_Delete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	m := NewManager(store, echoFactory, "")

	s, err := m.Open(ctx, "old-call")
	require.NoError(t, err)
	_, err = s.Ask(ctx, "hello")
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "old-call"))

	list, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	turns, err := store.SQLiteStore.LoadTurns(ctx, "old-call")
	require.NoError(t, err)
	assert.Empty(t, turns)

	// reopening starts from an empty log
	reopened, err := m.Open(ctx, "old-call")
	require.NoError(t, err)
	assert.NotSame(t, s, reopened)
	assert.Empty(t, reopened.History())

	err = m.Delete(ctx, "never-existed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_DeleteNoStore(t *testing.T) {
	m := NewManager(nil, echoFactory, "")
	_, err := m.Open(context.Background(), "mem-only")
	require.NoError(t, err)

	require.NoError(t, m.Delete(context.Background(), "mem-only"))
	assert.ErrorIs(t, m.Delete(context.Background(), "mem-only"), ErrNotFound)
}
