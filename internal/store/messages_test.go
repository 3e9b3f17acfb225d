package store

import (
	"strings"
	"testing"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roles(msgs []ai.Message) []ai.Role {
	out := make([]ai.Role, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

func TestHistorySystemEntry(t *testing.T) {
	t.Run("seeded when prompt given", func(t *testing.T) {
		h := NewHistory("be brief")
		require.Equal(t, 1, h.Len())
		sys, ok := h.System()
		assert.True(t, ok)
		assert.Equal(t, "be brief", sys)
	})

	t.Run("empty prompt leaves history empty", func(t *testing.T) {
		h := NewHistory("")
		assert.Equal(t, 0, h.Len())
		_, ok := h.System()
		assert.False(t, ok)
	})

	t.Run("set inserts at front of existing conversation", func(t *testing.T) {
		h := NewHistory("")
		h.Append(ai.Message{Role: ai.RoleUser, Content: "hi"}, ai.Message{Role: ai.RoleAssistant, Content: "hello"})
		h.SetSystem("late prompt")
		assert.Equal(t, []ai.Role{ai.RoleSystem, ai.RoleUser, ai.RoleAssistant}, roles(h.Messages()))
	})

	t.Run("set replaces in place", func(t *testing.T) {
		h := NewHistory("v1")
		h.Append(ai.Message{Role: ai.RoleUser, Content: "hi"})
		h.SetSystem("v2")
		msgs := h.Messages()
		assert.Equal(t, []ai.Role{ai.RoleSystem, ai.RoleUser}, roles(msgs))
		assert.Equal(t, "v2", msgs[0].Content)
	})

	t.Run("appended system entry never lands mid-history", func(t *testing.T) {
		h := NewHistory("v1")
		h.Append(
			ai.Message{Role: ai.RoleUser, Content: "hi"},
			ai.Message{Role: ai.RoleSystem, Content: "v2"},
			ai.Message{Role: ai.RoleAssistant, Content: "ok"},
		)
		msgs := h.Messages()
		assert.Equal(t, []ai.Role{ai.RoleSystem, ai.RoleUser, ai.RoleAssistant}, roles(msgs))
		assert.Equal(t, "v2", msgs[0].Content)
	})

	t.Run("empty prompt removes entry", func(t *testing.T) {
		h := NewHistory("v1")
		h.Append(ai.Message{Role: ai.RoleUser, Content: "hi"})
		h.SetSystem("")
		assert.Equal(t, []ai.Role{ai.RoleUser}, roles(h.Messages()))
	})
}

func TestHistoryStampsIDs(t *testing.T) {
	h := NewHistory("sys")
	h.Append(
		ai.Message{Role: ai.RoleUser, Content: "one"},
		ai.Message{ID: "keep", Role: ai.RoleAssistant, Content: "two"},
		ai.Message{Role: ai.RoleUser, Content: "three"},
	)

	msgs := h.Messages()
	require.Len(t, msgs, 4)
	seen := map[string]bool{}
	for _, m := range msgs {
		require.NotEmpty(t, m.ID)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
	assert.True(t, strings.HasPrefix(msgs[0].ID, "msg-"))
	assert.Equal(t, "keep", msgs[2].ID)

	t.Run("system id survives replacement", func(t *testing.T) {
		id := msgs[0].ID
		h.SetSystem("sys v2")
		assert.Equal(t, id, h.Messages()[0].ID)
	})
}

func TestHistoryCopies(t *testing.T) {
	h := NewHistory("sys")
	h.Append(ai.Message{Role: ai.RoleUser, Content: "one"})

	msgs := h.Messages()
	msgs[1].Content = "mutated"
	conv := h.Conversation()
	require.Len(t, conv, 1)
	assert.Equal(t, "one", conv[0].Content)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "one", last.Content)

	_, ok = NewHistory("").Last()
	assert.False(t, ok)
}
