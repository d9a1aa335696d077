package llm

import "errors"

// classifiedError tags a collaborator error as retryable or not. The
// retry loop in Complete only re-issues requests for transient errors;
// everything else falls through to the next endpoint in the chain.
type classifiedError struct {
	err       error
	transient bool
}

func (e *classifiedError) Error() string { return e.err.Error() }

func (e *classifiedError) Unwrap() error { return e.err }

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &classifiedError{err: err, transient: true}
}

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &classifiedError{err: err}
}

// IsTransient returns true if the error is transient and should be retried.
func IsTransient(err error) bool {
	var ce *classifiedError
	return errors.As(err, &ce) && ce.transient
}

// IsFatal returns true if the error is fatal and should not be retried.
func IsFatal(err error) bool {
	var ce *classifiedError
	return errors.As(err, &ce) && !ce.transient
}
