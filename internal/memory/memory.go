package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Log is the ordered, append-only turn history of one conversation.
// Turns are never edited or reordered once appended.
type Log struct {
	mu    sync.RWMutex
	turns []Turn
	now   func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append assigns ID, Seq and CreatedAt when missing and stores the turn
func (l *Log) Append(t Turn) Turn {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = l.now().UTC()
	}
	t.Seq = l.nextSeq()
	if t.Invocation != nil {
		inv := *t.Invocation
		t.Invocation = &inv
	}
	l.turns = append(l.turns, t)
	return t
}

func (l *Log) nextSeq() int {
	if len(l.turns) == 0 {
		return 1
	}
	return l.turns[len(l.turns)-1].Seq + 1
}

// Turns returns a copy of all turns in order
func (l *Log) Turns() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Turn(nil), l.turns...)
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Since returns a copy of the turns at index i and later
func (l *Log) Since(i int) []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 {
		i = 0
	}
	if i >= len(l.turns) {
		return nil
	}
	return append([]Turn(nil), l.turns[i:]...)
}

// Export is Turns under a name that reads better at persistence call sites
func (l *Log) Export() []Turn {
	return l.Turns()
}

// Import replaces an empty log with previously exported turns.
// Seq must be strictly increasing.
func (l *Log) Import(turns []Turn) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.turns) != 0 {
		return fmt.Errorf("import into non-empty log (%d turns)", len(l.turns))
	}
	for i := 1; i < len(turns); i++ {
		if turns[i].Seq <= turns[i-1].Seq {
			return fmt.Errorf("turn %s: seq %d not after %d", turns[i].ID, turns[i].Seq, turns[i-1].Seq)
		}
	}
	l.turns = append([]Turn(nil), turns...)
	return nil
}

// Reset drops all turns. Used when a session is cleared; the log is then
// append-only again from Seq 1.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = nil
}
