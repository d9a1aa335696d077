// Package main implements a mock collaborator server for offline
// pipeline testing. It serves OpenAI-compatible /v1/chat/completions
// responses from fixture files, routing by the "model" field in the
// request, so analysis and generation runs are fast, deterministic and
// need no real LLM.
//
// Usage:
//
//	mock-llm -fixtures /path/to/fixtures -port 11434
//
// Fixture files are named by model. JSON fixtures (knowledge bases)
// use "<model>.json"; script fixtures use "<model>.py" or "<model>.txt"
// and are returned verbatim as the assistant message. Numbered files
// ("<model>.1.json", "<model>.2.json") serve sequential calls in order,
// with the base file as repeating fallback. That covers multi-batch
// analysis runs against a single mock model.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type server struct {
	fixtures map[string][]string

	mu         sync.Mutex
	totalCalls int64
	modelCalls map[string]int64
	prompts    map[string][]string
}

func newServer(fixtures map[string][]string) *server {
	return &server{
		fixtures:   fixtures,
		modelCalls: make(map[string]int64),
		prompts:    make(map[string][]string),
	}
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing fixture response files")
	port := flag.Int("port", 11434, "port to listen on")
	flag.Parse()

	if envDir := os.Getenv("MOCK_LLM_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}
	if *fixtureDir == "" {
		*fixtureDir = "/fixtures"
	}

	fixtures, err := loadFixtures(*fixtureDir)
	if err != nil {
		log.Fatalf("Failed to load fixtures from %s: %v", *fixtureDir, err)
	}
	log.Printf("Loaded %d model(s) from %s", len(fixtures), *fixtureDir)
	for model, seq := range fixtures {
		log.Printf("  model: %s (%d fixture(s))", model, len(seq))
	}

	s := newServer(fixtures)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/stats", s.handleStats)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock collaborator listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	seq, ok := s.fixtures[req.Model]
	if !ok {
		http.Error(w, fmt.Sprintf("no fixture for model %q", req.Model), http.StatusNotFound)
		return
	}

	content, callIndex := s.nextFixture(req, seq)
	log.Printf("model=%s call=%d messages=%d bytes=%d", req.Model, callIndex, len(req.Messages), len(content))

	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index:        0,
				Message:      chatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{
			PromptTokens:     promptChars(req) / 4,
			CompletionTokens: len(content) / 4,
			TotalTokens:      (promptChars(req) + len(content)) / 4,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// nextFixture selects the fixture for this call and records the prompt
// for later assertion via /stats.
func (s *server) nextFixture(req chatRequest, seq []string) (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalCalls++
	callIndex := int(s.modelCalls[req.Model])
	s.modelCalls[req.Model]++

	if len(req.Messages) > 0 {
		last := req.Messages[len(req.Messages)-1]
		s.prompts[req.Model] = append(s.prompts[req.Model], last.Content)
	}

	if callIndex < len(seq) {
		return seq[callIndex], callIndex + 1
	}
	return seq[len(seq)-1], callIndex + 1
}

func promptChars(req chatRequest) int {
	n := 0
	for _, m := range req.Messages {
		n += len(m.Content)
	}
	return n
}

// handleStats returns call counts and captured prompts for assertions.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := map[string]any{
		"total_calls":    s.totalCalls,
		"calls_by_model": s.modelCalls,
		"prompts":        s.prompts,
	}
	data, err := json.Marshal(out)
	s.mu.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// numberedFileRe matches files like "mock-analyzer.1.json".
var numberedFileRe = regexp.MustCompile(`^(.+)\.(\d+)\.(json|txt|py)$`)

// fixtureExts are the recognized fixture file suffixes. JSON fixtures
// must be valid JSON; txt and py fixtures are served verbatim.
var fixtureExts = []string{".json", ".txt", ".py"}

// loadFixtures reads fixture files from dir and returns model name to
// ordered content sequence. Numbered files come first in numeric order,
// the base file last as repeating fallback.
func loadFixtures(dir string) (map[string][]string, error) {
	baseFiles := make(map[string]string)
	numberedFiles := make(map[string]map[int]string)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !hasFixtureExt(info.Name()) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if strings.HasSuffix(info.Name(), ".json") && !json.Valid(data) {
			return fmt.Errorf("invalid JSON in %s", path)
		}

		if matches := numberedFileRe.FindStringSubmatch(info.Name()); matches != nil {
			model := matches[1]
			index, _ := strconv.Atoi(matches[2])
			if numberedFiles[model] == nil {
				numberedFiles[model] = make(map[int]string)
			}
			numberedFiles[model][index] = string(data)
			return nil
		}

		model := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
		baseFiles[model] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	fixtures := make(map[string][]string)
	allModels := make(map[string]bool)
	for m := range baseFiles {
		allModels[m] = true
	}
	for m := range numberedFiles {
		allModels[m] = true
	}

	for model := range allModels {
		var seq []string
		if numbered, ok := numberedFiles[model]; ok {
			indices := make([]int, 0, len(numbered))
			for idx := range numbered {
				indices = append(indices, idx)
			}
			sort.Ints(indices)
			for _, idx := range indices {
				seq = append(seq, numbered[idx])
			}
		}
		if base, ok := baseFiles[model]; ok {
			seq = append(seq, base)
		}
		if len(seq) > 0 {
			fixtures[model] = seq
		}
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", dir)
	}
	return fixtures, nil
}

func hasFixtureExt(name string) bool {
	for _, ext := range fixtureExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
