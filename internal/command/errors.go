package command

import "fmt"

// Error is implemented by all framework-level command errors. Errors that
// implement it pass through the invocation wrapper untouched; anything else
// raised by a handler is wrapped in an InvokeError.
type Error interface {
	error
	commandError()
}

// CheckFailure reports that a check predicate rejected an invocation.
type CheckFailure struct {
	Command string
	Global  bool
}

func (e *CheckFailure) Error() string {
	if e.Global {
		return fmt.Sprintf("the global check functions for command %s failed", e.Command)
	}
	return fmt.Sprintf("the check functions for command %s failed", e.Command)
}

func (*CheckFailure) commandError() {}

// InvokeError wraps an error (or recovered panic) raised by a user handler.
// The original error is always retained.
type InvokeError struct {
	Command  string
	Original error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("application command %s raised an exception: %v", e.Command, e.Original)
}

func (e *InvokeError) Unwrap() error { return e.Original }

func (*InvokeError) commandError() {}
