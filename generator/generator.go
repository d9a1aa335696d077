// Package generator composes Phase 3 synthesis calls: retrieved
// framework context plus a demo exemplar plus the caller's request,
// sent to the generation collaborator in a single completion.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/fwexpert/framework"
	"github.com/c360studio/fwexpert/llm"
)

// defaultTemperature for synthesis calls. Slightly above zero so the
// collaborator can vary step wording without drifting from the patterns.
const defaultTemperature = 0.3

// defaultMaxTokens bounds one generated script.
const defaultMaxTokens = 4000

// Request describes one script to generate.
type Request struct {
	// Description is the natural-language test case description.
	Description string

	// TestName is the method or function name the script must define.
	TestName string

	FrameworkType framework.Type
}

// GenerationError reports a failed synthesis call with reason text.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed: %s", e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Generator produces test scripts from assembled context.
type Generator struct {
	client      llm.CompletionClient
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

// New creates a generator over the given collaborator client.
func New(client llm.CompletionClient, opts ...Option) *Generator {
	g := &Generator{
		client:      client,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate synthesizes one script. contextText is the retrieved
// knowledge bundle; demoExemplar is always included as the structural
// anchor even when real knowledge is present. No retries happen here
// beyond the client's own transport policy.
func (g *Generator) Generate(ctx context.Context, req Request, contextText, demoExemplar string) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	prompt := buildGenerationPrompt(req, contextText, demoExemplar)
	temp := g.temperature

	resp, err := g.client.Complete(ctx, llm.Request{
		Capability: "generation",
		Messages: []llm.Message{
			{Role: "system", Content: generationSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: &temp,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", &GenerationError{Reason: "collaborator call failed", Err: err}
	}

	script := llm.ExtractCode(resp.Content)
	if strings.TrimSpace(script) == "" {
		return "", &GenerationError{Reason: "collaborator returned empty script"}
	}

	g.logger.Info("Script generated",
		"framework", req.FrameworkType,
		"test_name", req.TestName,
		"chars", len(script),
		"model", resp.Model)

	return script, nil
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.Description) == "" {
		return &GenerationError{Reason: "description is required"}
	}
	if strings.TrimSpace(req.TestName) == "" {
		return &GenerationError{Reason: "test_name is required"}
	}
	if !req.FrameworkType.IsValid() {
		return &GenerationError{Reason: fmt.Sprintf("unknown framework type %q", req.FrameworkType)}
	}
	return nil
}
