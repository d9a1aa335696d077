package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/fwexpert/framework"
)

const (
	stateKeyPrefix    = "state."
	artifactKeyPrefix = "artifact."
)

// stateRecord is the per-framework-type analysis state persisted in the KV
// bucket. The record doubles as the single-flight lock: a status of
// "analyzing" blocks other analyses until commit or abort.
type stateRecord struct {
	Status        framework.Status `json:"status"`
	ArtifactKey   string           `json:"artifact_key,omitempty"`
	ClassesCount  int              `json:"classes_count"`
	PatternsCount int              `json:"patterns_count"`
	CreatedAt     time.Time        `json:"created_at,omitzero"`
	UpdatedAt     time.Time        `json:"updated_at,omitzero"`
	LastError     string           `json:"last_error,omitempty"`
}

// Lease is a claim on a framework type's state record, held for the duration
// of one analysis run. Exactly one of Commit or Abort must be called.
type Lease struct {
	frameworkType framework.Type
	revision      uint64
	prev          stateRecord
}

// Type returns the framework type this lease covers.
func (l *Lease) Type() framework.Type {
	return l.frameworkType
}

// Store persists knowledge artifacts with swap-on-completion commits.
// A committed artifact is immutable; re-analysis writes a fresh artifact key
// and swaps the state record pointer, so readers never observe a partial write.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a knowledge store over the given KV backend.
func NewStore(kv KV, opts ...StoreOption) *Store {
	s := &Store{
		kv:     kv,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func stateKey(t framework.Type) string {
	return stateKeyPrefix + t.String()
}

// Begin claims the state record for an analysis run. Returns
// ErrAnalysisInProgress when another run already holds the record.
func (s *Store) Begin(ctx context.Context, t framework.Type) (*Lease, error) {
	key := stateKey(t)

	entry, err := s.kv.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()

	if entry == nil {
		// First analysis for this type: create the record atomically so
		// two racing runs cannot both claim it.
		record := stateRecord{Status: framework.StatusAnalyzing, CreatedAt: now, UpdatedAt: now}
		data, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("marshal state record: %w", err)
		}

		rev, err := s.kv.Create(ctx, key, data)
		if err != nil {
			if errors.Is(err, ErrRevisionConflict) {
				return nil, ErrAnalysisInProgress
			}
			return nil, err
		}

		s.logger.Info("Analysis started", "framework", t, "first_run", true)
		return &Lease{frameworkType: t, revision: rev}, nil
	}

	var prev stateRecord
	if err := json.Unmarshal(entry.Value, &prev); err != nil {
		return nil, fmt.Errorf("unmarshal state record: %w", err)
	}

	if prev.Status == framework.StatusAnalyzing {
		return nil, ErrAnalysisInProgress
	}

	next := prev
	next.Status = framework.StatusAnalyzing
	next.UpdatedAt = now
	next.LastError = ""

	data, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("marshal state record: %w", err)
	}

	rev, err := s.kv.Update(ctx, key, data, entry.Revision)
	if err != nil {
		if errors.Is(err, ErrRevisionConflict) {
			// Lost the race to another run
			return nil, ErrAnalysisInProgress
		}
		return nil, err
	}

	s.logger.Info("Analysis started", "framework", t, "prev_status", prev.Status)
	return &Lease{frameworkType: t, revision: rev, prev: prev}, nil
}

// Commit writes the knowledge artifact and swaps the state record to point at
// it. The artifact is written first under a fresh key, so a crash between the
// two writes leaves the previous artifact intact.
func (s *Store) Commit(ctx context.Context, lease *Lease, k *framework.Knowledge) error {
	if lease == nil {
		return fmt.Errorf("nil lease")
	}
	if k.IsEmpty() {
		return fmt.Errorf("refusing to commit empty knowledge for %s", lease.frameworkType)
	}

	artifactKey := artifactKeyPrefix + uuid.New().String()

	data, err := json.Marshal(k)
	if err != nil {
		return fmt.Errorf("marshal knowledge artifact: %w", err)
	}

	if _, err := s.kv.Create(ctx, artifactKey, data); err != nil {
		return fmt.Errorf("write knowledge artifact: %w", err)
	}

	now := time.Now().UTC()
	record := stateRecord{
		Status:        framework.StatusAnalyzed,
		ArtifactKey:   artifactKey,
		ClassesCount:  len(k.Classes),
		PatternsCount: len(k.Patterns),
		CreatedAt:     lease.prev.CreatedAt,
		UpdatedAt:     now,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	stateData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal state record: %w", err)
	}

	if _, err := s.kv.Update(ctx, stateKey(lease.frameworkType), stateData, lease.revision); err != nil {
		// State moved underneath us; remove the orphaned artifact
		if delErr := s.kv.Delete(ctx, artifactKey); delErr != nil {
			s.logger.Warn("Failed to remove orphaned artifact", "key", artifactKey, "error", delErr)
		}
		return fmt.Errorf("commit state swap for %s: %w", lease.frameworkType, err)
	}

	// Old artifact is unreachable after the swap
	if lease.prev.ArtifactKey != "" && lease.prev.ArtifactKey != artifactKey {
		if err := s.kv.Delete(ctx, lease.prev.ArtifactKey); err != nil {
			s.logger.Warn("Failed to remove previous artifact", "key", lease.prev.ArtifactKey, "error", err)
		}
	}

	s.logger.Info("Analysis committed",
		"framework", lease.frameworkType,
		"classes", record.ClassesCount,
		"patterns", record.PatternsCount,
		"artifact", artifactKey)
	return nil
}

// Abort releases the lease after a failed analysis. A prior artifact survives
// with status stale; without one the record returns to not_analyzed.
func (s *Store) Abort(ctx context.Context, lease *Lease, cause error) error {
	if lease == nil {
		return fmt.Errorf("nil lease")
	}

	record := lease.prev
	if record.ArtifactKey != "" {
		record.Status = framework.StatusStale
	} else {
		record.Status = framework.StatusNotAnalyzed
	}
	record.UpdatedAt = time.Now().UTC()
	if cause != nil {
		record.LastError = cause.Error()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal state record: %w", err)
	}

	if _, err := s.kv.Update(ctx, stateKey(lease.frameworkType), data, lease.revision); err != nil {
		return fmt.Errorf("abort state swap for %s: %w", lease.frameworkType, err)
	}

	s.logger.Warn("Analysis aborted",
		"framework", lease.frameworkType,
		"status", record.Status,
		"error", record.LastError)
	return nil
}

// MarkStale flags an analyzed framework as outdated, e.g. after its source
// tree changed. A no-op for any other status.
func (s *Store) MarkStale(ctx context.Context, t framework.Type) error {
	key := stateKey(t)

	for attempt := 0; attempt < 3; attempt++ {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}

		var record stateRecord
		if err := json.Unmarshal(entry.Value, &record); err != nil {
			return fmt.Errorf("unmarshal state record: %w", err)
		}

		if record.Status != framework.StatusAnalyzed {
			return nil
		}

		record.Status = framework.StatusStale
		record.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal state record: %w", err)
		}

		_, err = s.kv.Update(ctx, key, data, entry.Revision)
		if err == nil {
			s.logger.Info("Knowledge marked stale", "framework", t)
			return nil
		}
		if !errors.Is(err, ErrRevisionConflict) {
			return err
		}
		// Lost a race, re-read and retry
	}

	return ErrRevisionConflict
}

// Get loads the committed knowledge artifact for a framework type.
// Stale knowledge is still returned; callers decide whether to trust it.
func (s *Store) Get(ctx context.Context, t framework.Type) (*framework.Knowledge, error) {
	entry, err := s.kv.Get(ctx, stateKey(t))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotAnalyzed
		}
		return nil, err
	}

	var record stateRecord
	if err := json.Unmarshal(entry.Value, &record); err != nil {
		return nil, fmt.Errorf("unmarshal state record: %w", err)
	}

	if record.ArtifactKey == "" {
		return nil, ErrNotAnalyzed
	}

	artifact, err := s.kv.Get(ctx, record.ArtifactKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotAnalyzed
		}
		return nil, err
	}

	var k framework.Knowledge
	if err := json.Unmarshal(artifact.Value, &k); err != nil {
		return nil, fmt.Errorf("unmarshal knowledge artifact: %w", err)
	}

	return &k, nil
}

// Stats reports the stored state for a framework type. Missing state is not
// an error; it reports not_analyzed.
func (s *Store) Stats(ctx context.Context, t framework.Type) (*framework.Stats, error) {
	stats := &framework.Stats{
		FrameworkType: t,
		Status:        framework.StatusNotAnalyzed,
	}

	entry, err := s.kv.Get(ctx, stateKey(t))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return stats, nil
		}
		return nil, err
	}

	var record stateRecord
	if err := json.Unmarshal(entry.Value, &record); err != nil {
		return nil, fmt.Errorf("unmarshal state record: %w", err)
	}

	stats.Status = record.Status
	stats.ClassesCount = record.ClassesCount
	stats.PatternsCount = record.PatternsCount
	stats.ArtifactLocation = record.ArtifactKey
	stats.CreatedAt = record.CreatedAt
	stats.UpdatedAt = record.UpdatedAt
	return stats, nil
}
