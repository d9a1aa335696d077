// Package providers implements collaborator API adapters. Each provider
// registers itself with the llm package via init(); importing this
// package for side effects makes the full set available to the client.
package providers

import (
	"net/http"
	"os"
	"strings"

	"github.com/c360studio/fwexpert/llm"
)

// OllamaProvider speaks the OpenAI-compatible chat API served by Ollama,
// vLLM and mock-llm. It is the default provider for local analysis runs.
type OllamaProvider struct{}

func init() {
	llm.RegisterProvider(&OllamaProvider{})
}

// Name returns the provider identifier.
func (o *OllamaProvider) Name() string {
	return "ollama"
}

// BuildURL constructs the chat completions endpoint.
func (o *OllamaProvider) BuildURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

// SetHeaders adds a bearer token when one is configured. Plain Ollama
// ignores it; OpenRouter and hosted vLLM require it.
func (o *OllamaProvider) SetHeaders(req *http.Request) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// BuildRequestBody creates the OpenAI-compatible request body.
func (o *OllamaProvider) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	return encodeOpenAIRequest(model, messages, temperature, maxTokens)
}

// ParseResponse extracts content from an OpenAI-compatible response.
func (o *OllamaProvider) ParseResponse(body []byte, _ string) (*llm.Response, error) {
	return decodeOpenAIResponse(body)
}
