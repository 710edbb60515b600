package models

import "fmt"

// ErrorKind enumerates the error taxonomy from spec §7. Fatal kinds abort a
// run; non-fatal kinds are materialized as ToolResult/FDError blocks so the
// conversation can continue.
type ErrorKind string

const (
	KindConfigError    ErrorKind = "config_error"
	KindProviderError  ErrorKind = "provider_error"
	KindToolNotFound   ErrorKind = "tool_not_found"
	KindToolExecError  ErrorKind = "tool_exec_error"
	KindFDError        ErrorKind = "fd_error"
	KindIterationLimit ErrorKind = "iteration_limit"
	KindCostLimit      ErrorKind = "cost_limit"
	KindForkDenied     ErrorKind = "fork_denied"
)

// Fatal reports whether errors of this kind abort the run (vs. being
// recovered into state as a ToolResult/FDError).
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindProviderError, KindConfigError:
		return true
	default:
		return false
	}
}

// RunError is returned by Process.Run / Executor.Run when a fatal error kind
// terminates the run, or to annotate a non-fatal termination reason
// (IterationLimit, CostLimit) in RunResult.
type RunError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *RunError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RunError) Unwrap() error { return e.Cause }

// NewRunError constructs a RunError of the given kind.
func NewRunError(kind ErrorKind, message string, cause error) *RunError {
	return &RunError{Kind: kind, Message: message, Cause: cause}
}
