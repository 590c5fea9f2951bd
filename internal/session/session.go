package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/sales-copilot/internal/agent"
	"github.com/MimeLyc/sales-copilot/internal/memory"
	"github.com/MimeLyc/sales-copilot/internal/persistence"
	"github.com/MimeLyc/sales-copilot/pkg/log"
)

// Store persists sessions and their turns
type Store interface {
	UpsertSession(ctx context.Context, session persistence.Session) error
	GetSession(ctx context.Context, id string) (persistence.Session, bool, error)
	ListSessions(ctx context.Context) ([]persistence.Session, error)
	AppendTurns(ctx context.Context, sessionID string, turns []memory.Turn) error
	LoadTurns(ctx context.Context, sessionID string) ([]memory.Turn, error)
	ClearSession(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// ErrNotFound is returned for a session id that is neither open nor stored
var ErrNotFound = errors.New("session not found")

// AgentFactory builds the agent of one session around its memory
type AgentFactory func(mem *memory.Log) *agent.Agent

// Message is one presentation-level history entry
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one conversation. Ask calls are serialized.
type Session struct {
	id    string
	store Store
	agent *agent.Agent

	mu sync.Mutex
}

func (s *Session) ID() string {
	return s.id
}

// Ask runs one request and persists the turns it produced.
// Turns are persisted even when the run fails.
func (s *Session) Ask(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.agent.Memory()
	before := mem.Len()
	answer, runErr := s.agent.Run(ctx, text)

	if s.store != nil {
		if err := s.store.AppendTurns(context.WithoutCancel(ctx), s.id, mem.Since(before)); err != nil {
			log.Error("Persist turns of session %s: %v", s.id, err)
			if runErr == nil {
				return answer, fmt.Errorf("persist session %s: %w", s.id, err)
			}
		}
	}
	return answer, runErr
}

// History returns human inputs and final answers; tool calls are omitted
func (s *Session) History() []Message {
	turns := s.agent.Memory().Turns()
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		if t.Kind == memory.KindToolCall {
			continue
		}
		out = append(out, Message{ID: t.ID, Role: t.Role(), Content: t.Text, Timestamp: t.CreatedAt})
	}
	return out
}

// LastAnswer returns the most recent final answer, or ""
func (s *Session) LastAnswer() string {
	turns := s.agent.Memory().Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Kind == memory.KindFinalAnswer {
			return turns[i].Text
		}
	}
	return ""
}

// Clear forgets the conversation in memory and in the store
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.ClearSession(ctx, s.id); err != nil {
			return fmt.Errorf("clear session %s: %w", s.id, err)
		}
	}
	s.agent.Memory().Reset()
	return nil
}

// Manager opens sessions, restoring their memory from the store
type Manager struct {
	store   Store
	factory AgentFactory
	model   string

	group    singleflight.Group
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager. A nil store keeps sessions in memory only.
func NewManager(store Store, factory AgentFactory, model string) *Manager {
	return &Manager{
		store:    store,
		factory:  factory,
		model:    model,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session with id, loading it from the store on first use.
// An empty id starts a new session. Concurrent opens of one id share a single load.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(id, func() (any, error) {
		return m.load(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	mem := memory.NewLog()
	if m.store != nil {
		if err := m.store.UpsertSession(ctx, persistence.Session{ID: id, Model: m.model}); err != nil {
			return nil, fmt.Errorf("open session %s: %w", id, err)
		}
		turns, err := m.store.LoadTurns(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", id, err)
		}
		if err := mem.Import(turns); err != nil {
			return nil, fmt.Errorf("restore session %s: %w", id, err)
		}
		log.Debug("Session %s restored with %d turns", id, len(turns))
	}

	s := &Session{id: id, store: m.store, agent: m.factory(mem)}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s, nil
}

// List returns the stored sessions, most recent first
func (m *Manager) List(ctx context.Context) ([]persistence.Session, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.ListSessions(ctx)
}

// Delete removes a session with all of its turns
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, open := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.store == nil {
		if !open {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	}

	_, found, err := m.store.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := m.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	log.Info("Deleted session %s", id)
	return nil
}
