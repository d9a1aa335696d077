package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/c360studio/fwexpert/config"
	"github.com/c360studio/fwexpert/framework"
	"github.com/c360studio/fwexpert/knowledge"
	"github.com/c360studio/fwexpert/llm"
)

// maxPromptChars bounds how much condensed source goes into one prompt.
const maxPromptChars = 120 * 1024

// AnalysisError wraps a failure during knowledge extraction with the stage
// it happened in.
type AnalysisError struct {
	FrameworkType framework.Type
	Stage         string
	Err           error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis of %s failed at %s: %v", e.FrameworkType, e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Analyzer drives Phase 1: scan, condense, batch, prompt, merge, commit.
type Analyzer struct {
	store       *knowledge.Store
	client      llm.CompletionClient
	sources     map[string]config.SourceConfig
	condenser   *Condenser
	batchSize   int
	maxBytes    int64
	condense    bool
	temperature float64
	logger      *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithTemperature overrides the sampling temperature for analysis calls.
func WithTemperature(t float64) Option {
	return func(a *Analyzer) {
		a.temperature = t
	}
}

// New creates an analyzer over the given store and collaborator client.
func New(store *knowledge.Store, client llm.CompletionClient, cfg config.AnalyzerConfig, opts ...Option) *Analyzer {
	a := &Analyzer{
		store:       store,
		client:      client,
		sources:     cfg.Sources,
		condenser:   NewCondenser(),
		batchSize:   cfg.BatchSize,
		maxBytes:    cfg.MaxFileBytes,
		condense:    cfg.Condense,
		temperature: 0.1,
		logger:      slog.Default(),
	}
	if a.batchSize <= 0 {
		a.batchSize = 5
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the full extraction for a framework type. When knowledge
// already exists and force is false, the existing stats return without any
// collaborator call. Concurrent runs surface knowledge.ErrAnalysisInProgress.
func (a *Analyzer) Analyze(ctx context.Context, ft framework.Type, force bool) (*framework.Stats, error) {
	if !force {
		stats, err := a.store.Stats(ctx, ft)
		if err != nil {
			return nil, err
		}
		if stats.Status == framework.StatusAnalyzed {
			a.logger.Info("Knowledge already analyzed, skipping", "framework", ft)
			return stats, nil
		}
	}

	lease, err := a.store.Begin(ctx, ft)
	if err != nil {
		return nil, err
	}

	k, err := a.extract(ctx, ft)
	if err != nil {
		if abortErr := a.store.Abort(ctx, lease, err); abortErr != nil {
			a.logger.Error("Failed to release analysis lease", "framework", ft, "error", abortErr)
		}
		return nil, err
	}

	if err := a.store.Commit(ctx, lease, k); err != nil {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "commit", Err: err}
	}

	return a.store.Stats(ctx, ft)
}

// extract scans the source tree and folds batch responses into one artifact.
func (a *Analyzer) extract(ctx context.Context, ft framework.Type) (*framework.Knowledge, error) {
	src, ok := a.sources[ft.String()]
	if !ok {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "scan", Err: fmt.Errorf("no source configured for framework %s", ft)}
	}

	scanner := NewScanner(src, a.maxBytes)
	files, err := scanner.Scan()
	if err != nil {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "scan", Err: err}
	}
	if len(files) == 0 {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "scan", Err: fmt.Errorf("no source files matched under %s", src.Root)}
	}

	a.logger.Info("Scanned framework source", "framework", ft, "files", len(files))

	if a.condense {
		for i := range files {
			files[i].Content = a.condenser.Condense(ctx, files[i].Path, files[i].Content)
		}
	}

	batches := a.pack(files)
	acc := &framework.Knowledge{FrameworkType: ft}

	for i, batch := range batches {
		var prompt string
		if i == 0 {
			prompt = buildAnalysisPrompt(ft, batch)
		} else {
			prompt, err = buildMergePrompt(ft, acc, batch)
			if err != nil {
				return nil, &AnalysisError{FrameworkType: ft, Stage: "prompt", Err: err}
			}
		}

		system := analysisSystemPrompt
		if i > 0 {
			system = mergeSystemPrompt
		}

		parsed, err := a.completeKnowledge(ctx, ft, system, prompt)
		if err != nil {
			return nil, err
		}

		a.logger.Info("Analysis batch complete",
			"framework", ft,
			"batch", i+1,
			"batches", len(batches),
			"classes", len(parsed.Classes),
			"patterns", len(parsed.Patterns))

		acc.Merge(parsed)
	}

	if acc.IsEmpty() {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "validate", Err: fmt.Errorf("collaborator produced no classes or patterns")}
	}

	return acc, nil
}

// IngestFiles merges additional files into the knowledge base without a full
// re-scan. Works against an empty base when nothing was analyzed yet.
func (a *Analyzer) IngestFiles(ctx context.Context, ft framework.Type, files []File) (*framework.Stats, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to ingest")
	}

	current, err := a.store.Get(ctx, ft)
	if err != nil {
		if !errors.Is(err, knowledge.ErrNotAnalyzed) {
			return nil, err
		}
		current = &framework.Knowledge{FrameworkType: ft}
	}

	lease, err := a.store.Begin(ctx, ft)
	if err != nil {
		return nil, err
	}

	merged, err := a.ingest(ctx, ft, current, files)
	if err != nil {
		if abortErr := a.store.Abort(ctx, lease, err); abortErr != nil {
			a.logger.Error("Failed to release analysis lease", "framework", ft, "error", abortErr)
		}
		return nil, err
	}

	if err := a.store.Commit(ctx, lease, merged); err != nil {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "commit", Err: err}
	}

	a.logger.Info("Files ingested",
		"framework", ft,
		"files", len(files),
		"classes", len(merged.Classes),
		"patterns", len(merged.Patterns))

	return a.store.Stats(ctx, ft)
}

func (a *Analyzer) ingest(ctx context.Context, ft framework.Type, current *framework.Knowledge, files []File) (*framework.Knowledge, error) {
	if a.condense {
		for i := range files {
			files[i].Content = a.condenser.Condense(ctx, files[i].Path, files[i].Content)
		}
	}

	prompt, err := buildMergePrompt(ft, current, files)
	if err != nil {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "prompt", Err: err}
	}

	parsed, err := a.completeKnowledge(ctx, ft, mergeSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	merged := current
	merged.Merge(parsed)

	if merged.IsEmpty() {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "validate", Err: fmt.Errorf("collaborator produced no classes or patterns")}
	}

	return merged, nil
}

// completeKnowledge sends one analysis prompt and parses the JSON response.
func (a *Analyzer) completeKnowledge(ctx context.Context, ft framework.Type, system, prompt string) (*framework.Knowledge, error) {
	temp := a.temperature
	resp, err := a.client.Complete(ctx, llm.Request{
		Capability: "analysis",
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: &temp,
	})
	if err != nil {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "complete", Err: err}
	}

	raw := llm.ExtractJSON(resp.Content)
	if raw == "" {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "parse", Err: fmt.Errorf("no JSON object in collaborator response")}
	}

	var wire wireKnowledge
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, &AnalysisError{FrameworkType: ft, Stage: "parse", Err: fmt.Errorf("malformed knowledge JSON: %w", err)}
	}

	return wire.toKnowledge(ft), nil
}

// pack groups files into batches bounded by count and total characters.
func (a *Analyzer) pack(files []File) [][]File {
	var batches [][]File
	var batch []File
	chars := 0

	for _, f := range files {
		if len(batch) > 0 && (len(batch) >= a.batchSize || chars+len(f.Content) > maxPromptChars) {
			batches = append(batches, batch)
			batch = nil
			chars = 0
		}
		batch = append(batch, f)
		chars += len(f.Content)
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}

	return batches
}
