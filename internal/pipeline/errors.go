package pipeline

import "fmt"

// ConfigurationError is a fatal build-phase failure: no steps enabled, an
// unknown step key, or a missing terminal persistence role. It aborts the run
// before any step executes and is the only error the executor raises to the
// caller.
type ConfigurationError struct {
	RunType string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("pipeline configuration %q: %s", e.RunType, e.Reason)
}

// RecoverableError marks a step failure the run can absorb: a missing
// optional capability provider, an external call timeout or quota error,
// malformed but non-critical input. The executor records it as a warning and
// continues; the step still counts as executed.
type RecoverableError struct {
	Reason string
	Err    error
}

func (e *RecoverableError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *RecoverableError) Unwrap() error { return e.Err }

// Recoverable wraps err as a RecoverableError with the given reason.
func Recoverable(reason string, err error) error {
	return &RecoverableError{Reason: reason, Err: err}
}

// PersistenceError reports that the terminal step failed to write any result.
// It is the only failure mode that marks the overall run unsuccessful; the
// run still returns a summary rather than raising.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist analysis result: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
