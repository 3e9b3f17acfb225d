package agui

import (
	"encoding/json"
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestPrompt(t *testing.T) {
	input := RunAgentInput{Messages: []events.Message{
		{ID: "1", Role: "system", Content: ptr("be brief")},
		{ID: "2", Role: "user", Content: ptr("first")},
		{ID: "3", Role: "assistant", Content: ptr("ok")},
		{ID: "4", Role: "user", Content: ptr("second")},
		{ID: "5", Role: "user", Content: ptr("   ")},
	}}

	prompt, err := input.Prompt()
	require.NoError(t, err)
	assert.Equal(t, "second", prompt)
	assert.Equal(t, "be brief", input.SystemPrompt())
}

func TestPromptMissing(t *testing.T) {
	input := RunAgentInput{Messages: []events.Message{{ID: "1", Role: "assistant", Content: ptr("hi")}}}
	_, err := input.Prompt()
	assert.ErrorIs(t, err, ErrNoMessages)

	_, err = (&RunAgentInput{}).Prompt()
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestDecodeInput(t *testing.T) {
	body := `{"threadId":"th","runId":"run","messages":[{"id":"m1","role":"user","content":"hello"}]}`

	var input RunAgentInput
	require.NoError(t, json.Unmarshal([]byte(body), &input))
	assert.Equal(t, "th", input.ThreadID)
	assert.Equal(t, "run", input.RunID)

	prompt, err := input.Prompt()
	require.NoError(t, err)
	assert.Equal(t, "hello", prompt)
	assert.Empty(t, input.SystemPrompt())
}
