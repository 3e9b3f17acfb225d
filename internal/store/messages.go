package store

import (
	"sync"

	ai "github.com/Holovkat/Auto-Claude"
)

// History is the conversation owned by one engine. It holds at most one
// system entry, and when present that entry is first.
type History struct {
	mu       sync.RWMutex
	messages []ai.Message
}

// NewHistory creates a history seeded with a system entry when
// systemPrompt is non-empty.
func NewHistory(systemPrompt string) *History {
	h := &History{messages: make([]ai.Message, 0, 8)}
	h.SetSystem(systemPrompt)
	return h
}

// SetSystem replaces the system entry, inserting it at the front if there
// is none. An empty prompt removes it.
func (h *History) SetSystem(prompt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setSystemLocked(prompt)
}

func (h *History) setSystemLocked(prompt string) {
	hasSystem := len(h.messages) > 0 && h.messages[0].Role == ai.RoleSystem
	switch {
	case prompt == "" && hasSystem:
		h.messages = append(h.messages[:0:0], h.messages[1:]...)
	case prompt == "":
	case hasSystem:
		h.messages[0].Content = prompt
	default:
		h.messages = append([]ai.Message{{ID: ai.GenerateMessageID(), Role: ai.RoleSystem, Content: prompt}}, h.messages...)
	}
}

// System returns the system prompt, if any.
func (h *History) System() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) > 0 && h.messages[0].Role == ai.RoleSystem {
		return h.messages[0].Content, true
	}
	return "", false
}

// Append adds entries in order, stamping an ID on any that lack one. A
// system entry replaces the existing one rather than being appended.
func (h *History) Append(msgs ...ai.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range msgs {
		if m.Role == ai.RoleSystem {
			h.setSystemLocked(m.Content)
			continue
		}
		if m.ID == "" {
			m.ID = ai.GenerateMessageID()
		}
		h.messages = append(h.messages, m)
	}
}

// Messages returns a copy of every entry, system entry first.
func (h *History) Messages() []ai.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ai.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Conversation returns a copy of the entries after the system entry, for
// backends that take the system prompt separately.
func (h *History) Conversation() []ai.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msgs := h.messages
	if len(msgs) > 0 && msgs[0].Role == ai.RoleSystem {
		msgs = msgs[1:]
	}
	out := make([]ai.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Len returns the number of entries, including the system entry.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the most recent entry.
func (h *History) Last() (ai.Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return ai.Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}
