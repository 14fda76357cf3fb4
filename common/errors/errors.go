package errors

// ExitCodeError is an error that carries the process exit code it should produce.
type ExitCodeError struct {
	code ExitCode
	error
}

func NewError(err error, exitCode ExitCode) *ExitCodeError {
	if err == nil {
		return nil
	}
	return &ExitCodeError{exitCode, err}
}

func (e *ExitCodeError) GetExitCode() ExitCode {
	if e == nil {
		return 0
	}
	return e.code
}

// Cause lets github.com/pkg/errors unwrap to the underlying error.
func (e *ExitCodeError) Cause() error {
	return e.error
}

// ExitCodeOf returns the exit code attached to err, GenericFailureExitCode for
// any other non-nil error and 0 for nil.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return 0
	}
	if ec, ok := err.(*ExitCodeError); ok {
		return ec.GetExitCode()
	}
	return GenericFailureExitCode
}
