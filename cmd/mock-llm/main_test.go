package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func postChat(t *testing.T, s *server, model string, messages ...chatMessage) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleChatCompletions(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) chatResponse {
	t.Helper()
	var resp chatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestLoadFixtures(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "mock-analyzer.json", `{"classes": {}}`)
	writeFixture(t, dir, "mock-generator.py", "def INITIALIZE(self):\n    pass\n")
	writeFixture(t, dir, "notes.md", "ignored")

	fixtures, err := loadFixtures(dir)
	require.NoError(t, err)

	require.Len(t, fixtures, 2)
	assert.Equal(t, []string{`{"classes": {}}`}, fixtures["mock-analyzer"])
	assert.Contains(t, fixtures["mock-generator"][0], "def INITIALIZE")
}

func TestLoadFixturesNumberedOrder(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "mock-analyzer.2.json", `{"batch": 2}`)
	writeFixture(t, dir, "mock-analyzer.1.json", `{"batch": 1}`)
	writeFixture(t, dir, "mock-analyzer.json", `{"batch": 0}`)

	fixtures, err := loadFixtures(dir)
	require.NoError(t, err)

	require.Len(t, fixtures["mock-analyzer"], 3)
	assert.Equal(t, `{"batch": 1}`, fixtures["mock-analyzer"][0])
	assert.Equal(t, `{"batch": 2}`, fixtures["mock-analyzer"][1])
	assert.Equal(t, `{"batch": 0}`, fixtures["mock-analyzer"][2])
}

func TestLoadFixturesRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "broken.json", `{not json`)

	_, err := loadFixtures(dir)
	assert.Error(t, err)
}

func TestLoadFixturesEmptyDir(t *testing.T) {
	_, err := loadFixtures(t.TempDir())
	assert.Error(t, err)
}

func TestChatCompletionsServesFixture(t *testing.T) {
	s := newServer(map[string][]string{
		"mock-generator": {"def INITIALIZE(self):\n    pass\n"},
	})

	rec := postChat(t, s, "mock-generator", chatMessage{Role: "user", Content: "generate a test"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeChat(t, rec)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "assistant", resp.Choices[0].Message.Role)
	assert.Contains(t, resp.Choices[0].Message.Content, "def INITIALIZE")
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, "mock-generator", resp.Model)
}

func TestChatCompletionsSequential(t *testing.T) {
	s := newServer(map[string][]string{
		"mock-analyzer": {"first", "second"},
	})

	for _, want := range []string{"first", "second", "second", "second"} {
		rec := postChat(t, s, "mock-analyzer", chatMessage{Role: "user", Content: "analyze"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, decodeChat(t, rec).Choices[0].Message.Content)
	}
}

func TestChatCompletionsUnknownModel(t *testing.T) {
	s := newServer(map[string][]string{"known": {"x"}})

	rec := postChat(t, s, "unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatCompletionsRejectsGet(t *testing.T) {
	s := newServer(map[string][]string{"known": {"x"}})

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/completions", nil)
	rec := httptest.NewRecorder()
	s.handleChatCompletions(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChatCompletionsRejectsBadBody(t *testing.T) {
	s := newServer(map[string][]string{"known": {"x"}})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	s.handleChatCompletions(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsCapturesPrompts(t *testing.T) {
	s := newServer(map[string][]string{"mock-generator": {"script"}})

	postChat(t, s, "mock-generator",
		chatMessage{Role: "system", Content: "you are an expert"},
		chatMessage{Role: "user", Content: "verify admin login"},
	)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	s.handleStats(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		TotalCalls   int64               `json:"total_calls"`
		CallsByModel map[string]int64    `json:"calls_by_model"`
		Prompts      map[string][]string `json:"prompts"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))

	assert.Equal(t, int64(1), stats.TotalCalls)
	assert.Equal(t, int64(1), stats.CallsByModel["mock-generator"])
	require.Len(t, stats.Prompts["mock-generator"], 1)
	assert.Equal(t, "verify admin login", stats.Prompts["mock-generator"][0])
}

func TestHealth(t *testing.T) {
	s := newServer(nil)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
