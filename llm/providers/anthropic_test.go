package providers

import (
	"encoding/json"
	"testing"

	"github.com/c360studio/fwexpert/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicProvider_BuildURL(t *testing.T) {
	p := &AnthropicProvider{}

	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{
			name:    "empty uses default",
			baseURL: "",
			want:    "https://api.anthropic.com/v1/messages",
		},
		{
			name:    "custom base URL",
			baseURL: "https://proxy.example.com",
			want:    "https://proxy.example.com/v1/messages",
		},
		{
			name:    "already has endpoint",
			baseURL: "https://api.anthropic.com/v1/messages",
			want:    "https://api.anthropic.com/v1/messages",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.BuildURL(tt.baseURL))
		})
	}
}

func TestAnthropicProvider_BuildRequestBody_LiftsSystemMessage(t *testing.T) {
	p := &AnthropicProvider{}

	messages := []llm.Message{
		{Role: "system", Content: "You are helpful."},
		{Role: "user", Content: "Hello"},
	}

	body, err := p.BuildRequestBody("claude-sonnet-4-20250514", messages, nil, 1024)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))

	// System message goes to the top-level field, not the messages array
	assert.Equal(t, "You are helpful.", parsed["system"])

	msgs, ok := parsed["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "user", first["role"])

	assert.Equal(t, float64(1024), parsed["max_tokens"])
}

func TestAnthropicProvider_BuildRequestBody_DefaultMaxTokens(t *testing.T) {
	p := &AnthropicProvider{}

	body, err := p.BuildRequestBody("claude-sonnet-4-20250514", []llm.Message{{Role: "user", Content: "hi"}}, nil, 0)
	require.NoError(t, err)

	// max_tokens is required by the API, so a default must be filled in
	assert.Contains(t, string(body), `"max_tokens":4096`)
}

func TestAnthropicProvider_ParseResponse(t *testing.T) {
	p := &AnthropicProvider{}

	responseBody := []byte(`{
		"id": "msg_123",
		"model": "claude-sonnet-4-20250514",
		"content": [
			{"type": "text", "text": "Hello! "},
			{"type": "text", "text": "How can I help?"}
		],
		"stop_reason": "end_turn",
		"usage": {
			"input_tokens": 12,
			"output_tokens": 8
		}
	}`)

	resp, err := p.ParseResponse(responseBody, "test-model")
	require.NoError(t, err)

	assert.Equal(t, "Hello! How can I help?", resp.Content)
	assert.Equal(t, "claude-sonnet-4-20250514", resp.Model)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 8, resp.Usage.CompletionTokens)
	assert.Equal(t, 20, resp.Usage.TotalTokens)
}

func TestAnthropicProvider_ParseResponse_Empty(t *testing.T) {
	p := &AnthropicProvider{}

	_, err := p.ParseResponse([]byte(`{"id": "msg_123", "content": []}`), "test-model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}
