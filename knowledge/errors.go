package knowledge

import "errors"

var (
	// ErrNotFound indicates the requested key does not exist in the store.
	ErrNotFound = errors.New("knowledge: not found")

	// ErrAnalysisInProgress indicates another analysis holds the state record.
	ErrAnalysisInProgress = errors.New("knowledge: analysis already in progress")

	// ErrRevisionConflict indicates a compare-and-swap update lost a race.
	ErrRevisionConflict = errors.New("knowledge: revision conflict")

	// ErrNotAnalyzed indicates no knowledge artifact exists for the framework.
	ErrNotAnalyzed = errors.New("knowledge: framework not analyzed")
)
