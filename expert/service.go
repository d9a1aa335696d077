// Package expert wires the analyze/retrieve/generate pipeline behind one
// service facade and exposes it over HTTP.
package expert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/fwexpert/framework"
	"github.com/c360studio/fwexpert/generator"
	"github.com/c360studio/fwexpert/retriever"
	"github.com/c360studio/fwexpert/validator"
)

// Analyzer runs Phase 1 knowledge extraction.
type Analyzer interface {
	Analyze(ctx context.Context, ft framework.Type, force bool) (*framework.Stats, error)
}

// Retriever assembles Phase 2 context bundles.
type Retriever interface {
	Retrieve(ctx context.Context, description string, ft framework.Type) (*retriever.Bundle, error)
}

// ScriptGenerator runs the Phase 3 synthesis call.
type ScriptGenerator interface {
	Generate(ctx context.Context, req generator.Request, contextText, demoExemplar string) (string, error)
}

// StatsReader reads knowledge stats.
type StatsReader interface {
	Stats(ctx context.Context, ft framework.Type) (*framework.Stats, error)
}

// Service is the framework expert facade. Constructed once per process
// and injected wherever the pipeline is needed.
type Service struct {
	stats     StatsReader
	analyzer  Analyzer
	retriever Retriever
	generator ScriptGenerator
	metrics   *Metrics
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics attaches a metrics set.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService assembles the pipeline facade.
func NewService(stats StatsReader, a Analyzer, r Retriever, g ScriptGenerator, opts ...Option) *Service {
	s := &Service{
		stats:     stats,
		analyzer:  a,
		retriever: r,
		generator: g,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KnowledgeStats reads the stored stats for a framework type. Never
// fails on a missing entry.
func (s *Service) KnowledgeStats(ctx context.Context, ft framework.Type) (*framework.Stats, error) {
	if !ft.IsValid() {
		return nil, fmt.Errorf("%w: %q", framework.ErrUnknownType, ft)
	}
	return s.stats.Stats(ctx, ft)
}

// Analyze runs (or skips, per idempotence) a Phase 1 analysis.
func (s *Service) Analyze(ctx context.Context, ft framework.Type, force bool) (*framework.Stats, error) {
	if !ft.IsValid() {
		return nil, fmt.Errorf("%w: %q", framework.ErrUnknownType, ft)
	}

	start := time.Now()
	stats, err := s.analyzer.Analyze(ctx, ft, force)
	if s.metrics != nil {
		s.metrics.ObserveAnalysis(ft, time.Since(start), err)
	}
	return stats, err
}

// GenerateRequest describes one generate-script call.
type GenerateRequest struct {
	Description   string         `json:"description"`
	TestName      string         `json:"test_name"`
	FrameworkType framework.Type `json:"framework_type"`
}

// GenerateResult is the pipeline output for one request.
type GenerateResult struct {
	Script        string           `json:"script"`
	Flags         validator.Flags  `json:"structural_flags"`
	Warnings      []string         `json:"warnings,omitempty"`
	ContextSource retriever.Source `json:"context_source"`
	ContextChars  int              `json:"context_chars"`
}

// GenerateScript runs retrieve, generate, validate for one request.
// Missing knowledge is absorbed by the retriever's demo fallback; only
// generation failures surface as errors.
func (s *Service) GenerateScript(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	bundle, err := s.retriever.Retrieve(ctx, req.Description, req.FrameworkType)
	if err != nil {
		return nil, err
	}
	contextText := bundle.Render()

	demo, err := framework.DemoCorpus(req.FrameworkType)
	if err != nil {
		return nil, err
	}
	if bundle.Source == retriever.SourceDemo {
		// The bundle already is the demo corpus; do not send it twice.
		contextText = ""
	}

	start := time.Now()
	script, err := s.generator.Generate(ctx, generator.Request{
		Description:   req.Description,
		TestName:      req.TestName,
		FrameworkType: req.FrameworkType,
	}, contextText, demo)
	if s.metrics != nil {
		s.metrics.ObserveGeneration(req.FrameworkType, bundle.Source, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	flags := validator.Check(script, req.FrameworkType)
	if !flags.AllPresent() {
		s.logger.Warn("Generated script is structurally incomplete",
			"framework", req.FrameworkType,
			"test_name", req.TestName,
			"flags", flags)
	}

	return &GenerateResult{
		Script:        script,
		Flags:         flags,
		Warnings:      flags.Warnings(),
		ContextSource: bundle.Source,
		ContextChars:  len(contextText) + len(demo),
	}, nil
}
