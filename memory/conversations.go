package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrInvalidKey is returned when a plan id is empty.
	ErrInvalidKey = errors.New("memory: invalid key")

	// ErrNotFound is returned when a plan has no history.
	ErrNotFound = errors.New("memory: item not found")
)

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of an agent conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// AgentName is the agent that recorded the message.
	AgentName string `json:"agent_name,omitempty"`

	// StepIndex is the plan step the message belongs to.
	StepIndex int `json:"step_index"`

	CreatedAt time.Time `json:"created_at"`
}

// Conversations stores message history keyed by plan id. It is safe for concurrent use.
type Conversations struct {
	mu    sync.RWMutex
	plans map[string][]Message
	now   func() time.Time
}

// NewConversations creates an empty store.
func NewConversations() *Conversations {
	return &Conversations{
		plans: make(map[string][]Message),
		now:   time.Now,
	}
}

// Append adds msg to planID's history. A zero CreatedAt is set to now.
func (c *Conversations) Append(_ context.Context, planID string, msg Message) error {
	if strings.TrimSpace(planID) == "" {
		return ErrInvalidKey
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = c.now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[planID] = append(c.plans[planID], msg)
	return nil
}

// History returns a copy of planID's messages in insertion order.
func (c *Conversations) History(_ context.Context, planID string) ([]Message, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	msgs, ok := c.plans[planID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// ClearAgentMemory drops planID's history. Clearing an unknown plan is not an error.
func (c *Conversations) ClearAgentMemory(_ context.Context, planID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.plans, planID)
	return nil
}
