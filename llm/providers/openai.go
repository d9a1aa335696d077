package providers

import (
	"net/http"
	"os"
	"strings"

	"github.com/c360studio/fwexpert/llm"
)

// OpenAIProvider implements the OpenAI chat completions API. It shares the
// wire format with OllamaProvider but targets api.openai.com and requires
// an API key.
type OpenAIProvider struct{}

func init() {
	llm.RegisterProvider(&OpenAIProvider{})
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// BuildURL constructs the chat completions endpoint.
func (p *OpenAIProvider) BuildURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}

	return baseURL + "/chat/completions"
}

// SetHeaders adds the bearer token.
func (p *OpenAIProvider) SetHeaders(req *http.Request) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// BuildRequestBody creates the chat completions request body.
func (p *OpenAIProvider) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	return encodeOpenAIRequest(model, messages, temperature, maxTokens)
}

// ParseResponse extracts content from a chat completions response.
func (p *OpenAIProvider) ParseResponse(body []byte, _ string) (*llm.Response, error) {
	return decodeOpenAIResponse(body)
}
