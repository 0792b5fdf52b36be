package chat

import (
	"sync"
	"time"
)

// Conversation holds one visitor's transcripts, keyed by character id.
// Selecting another character never clears anything: every transcript lives
// until the conversation itself is discarded.
type Conversation struct {
	mu      sync.RWMutex
	active  string
	history map[string][]Turn
	now     func() time.Time
}

// NewConversation returns an empty conversation with active as the selected character.
func NewConversation(active string) *Conversation {
	return &Conversation{
		active:  active,
		history: make(map[string][]Turn),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Active returns the currently selected character id.
func (c *Conversation) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Select makes characterID the active character. It reports whether the
// selection changed; selecting the active character again is a no-op.
func (c *Conversation) Select(characterID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == characterID {
		return false
	}
	c.active = characterID
	return true
}

// History returns a copy of the turns recorded for characterID, oldest first.
func (c *Conversation) History(characterID string) []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	turns := c.history[characterID]
	if len(turns) == 0 {
		return []Turn{}
	}
	copied := make([]Turn, len(turns))
	copy(copied, turns)
	return copied
}

// AppendTurn records a completed exchange at the end of characterID's transcript.
func (c *Conversation) AppendTurn(characterID, question, answer string) Turn {
	turn := Turn{Question: question, Answer: answer, CreatedAt: c.now()}

	c.mu.Lock()
	c.history[characterID] = append(c.history[characterID], turn)
	c.mu.Unlock()

	return turn
}

// Len returns the number of turns recorded for characterID.
func (c *Conversation) Len(characterID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.history[characterID])
}
