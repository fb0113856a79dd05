package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObjectPlain(t *testing.T) {
	data, err := ExtractObject(`{"thought": "click the button"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"thought": "click the button"}`, string(data))
}

func TestExtractObjectMarkdownFence(t *testing.T) {
	text := "Here is the plan:\n```json\n{\"plan\": [\"step one\"]}\n```\nLet me know."
	data, err := ExtractObject(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan": ["step one"]}`, string(data))
}

func TestExtractObjectTrailingCommas(t *testing.T) {
	text := `{"plan": ["a", "b",], "target_count": 3,}`
	data, err := ExtractObject(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan": ["a", "b"], "target_count": 3}`, string(data))
}

func TestExtractObjectTruncated(t *testing.T) {
	text := `{"thought": "ok", "action": {"type": "wait"`
	data, err := ExtractObject(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"thought": "ok", "action": {"type": "wait"}}`, string(data))
}

func TestExtractObjectSurroundingProse(t *testing.T) {
	text := `Sure! The action is {"type": "click", "id": "4"} as requested.`
	data, err := ExtractObject(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "click", "id": "4"}`, string(data))
}

func TestExtractObjectNoObject(t *testing.T) {
	_, err := ExtractObject("I could not produce any structured output, sorry.")
	assert.Error(t, err)
}

func TestExtractObjectUnrecoverable(t *testing.T) {
	_, err := ExtractObject(`{"thought": not even close`)
	assert.Error(t, err)
}

func TestDecodeObject(t *testing.T) {
	var out struct {
		Thought string `json:"thought"`
	}
	err := DecodeObject("```json\n{\"thought\": \"scroll down\",}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "scroll down", out.Thought)
}
