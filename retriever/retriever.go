// Package retriever selects the minimal slice of analyzed framework
// knowledge relevant to one test description. Selection is lexical and
// deterministic: the same description against the same knowledge
// snapshot always yields the same bundle. When no analyzed knowledge
// exists the retriever substitutes the static demo corpus instead of
// failing.
package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/fwexpert/config"
	"github.com/c360studio/fwexpert/framework"
)

// KnowledgeSource is the read side of the knowledge store.
type KnowledgeSource interface {
	Get(ctx context.Context, ft framework.Type) (*framework.Knowledge, error)
	Stats(ctx context.Context, ft framework.Type) (*framework.Stats, error)
}

// Retriever assembles context bundles from stored knowledge.
type Retriever struct {
	source      KnowledgeSource
	calculator  *BudgetCalculator
	maxPatterns int
	maxClasses  int
	logger      *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// New creates a retriever over the given knowledge source.
func New(source KnowledgeSource, cfg config.RetrieverConfig, opts ...Option) *Retriever {
	r := &Retriever{
		source:      source,
		calculator:  NewBudgetCalculator(cfg.TokenBudget, defaultHeadroomTokens),
		maxPatterns: cfg.MaxPatterns,
		maxClasses:  cfg.MaxClasses,
		logger:      slog.Default(),
	}
	if r.maxPatterns <= 0 {
		r.maxPatterns = 5
	}
	if r.maxClasses <= 0 {
		r.maxClasses = 8
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve builds the context bundle for a test description. A store
// miss or un-analyzed status degrades to the demo corpus and is never
// surfaced as an error. The only failure mode is an unknown framework
// type.
func (r *Retriever) Retrieve(ctx context.Context, description string, ft framework.Type) (*Bundle, error) {
	if !ft.IsValid() {
		return nil, fmt.Errorf("%w: %q", framework.ErrUnknownType, ft)
	}

	k := r.analyzedKnowledge(ctx, ft)
	if k == nil {
		demo, err := framework.DemoCorpus(ft)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("No analyzed knowledge, using demo corpus", "framework", ft)
		return &Bundle{
			FrameworkType: ft,
			Source:        SourceDemo,
			DemoText:      demo,
		}, nil
	}

	bundle := r.slice(description, ft, k)
	r.logger.Debug("Knowledge bundle assembled",
		"framework", ft,
		"patterns", len(bundle.Patterns),
		"classes", len(bundle.ClassNames),
		"chars", len(bundle.Render()))
	return bundle, nil
}

// analyzedKnowledge loads the committed artifact, or nil when the
// framework has no usable analysis.
func (r *Retriever) analyzedKnowledge(ctx context.Context, ft framework.Type) *framework.Knowledge {
	stats, err := r.source.Stats(ctx, ft)
	if err != nil || stats.Status != framework.StatusAnalyzed {
		return nil
	}
	k, err := r.source.Get(ctx, ft)
	if err != nil || k.IsEmpty() {
		return nil
	}
	return k
}

// slice ranks patterns and classes against the description and takes
// them greedily in rank order until the rendered bundle hits the
// character budget. Mandatory components are always included.
func (r *Retriever) slice(description string, ft framework.Type, k *framework.Knowledge) *Bundle {
	query := tokenSet(tokenize(description))
	budget := r.calculator.CharBudget()

	bundle := &Bundle{
		FrameworkType: ft,
		Source:        SourceKnowledge,
		Classes:       make(map[string]framework.ClassInfo),
		Mandatory:     k.Mandatory,
	}

	used := len(bundle.Render())

	var required []string
	for _, p := range rankPatterns(query, k.Patterns) {
		if len(bundle.Patterns) >= r.maxPatterns {
			break
		}
		cost := len(renderPattern(p))
		if len(bundle.Patterns) > 0 && used+cost > budget {
			break
		}
		bundle.Patterns = append(bundle.Patterns, p)
		required = append(required, p.RequiredClasses...)
		used += cost
	}

	for _, name := range rankClasses(query, k.Classes, required) {
		if len(bundle.ClassNames) >= r.maxClasses {
			break
		}
		cost := len(renderClass(name, k.Classes[name]))
		if len(bundle.ClassNames) > 0 && used+cost > budget {
			break
		}
		bundle.ClassNames = append(bundle.ClassNames, name)
		bundle.Classes[name] = k.Classes[name]
		used += cost
	}

	return bundle
}
