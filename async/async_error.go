package async

// AsyncError is a future whose value is an error.
// SetValue completes it, TryGetValue polls it without blocking.
type AsyncError struct {
	errCh     chan error
	val       error
	completed bool
}

func newAsyncError() *AsyncError {
	return &AsyncError{
		errCh: make(chan error, 1),
	}
}

// SetValue completes the AsyncError. Calling it twice panics.
func (e *AsyncError) SetValue(err error) {
	e.errCh <- err
	close(e.errCh)
}

// TryGetValue returns (true, value) once completed and (false, nil) while pending.
func (e *AsyncError) TryGetValue() (bool, error) {
	if e.completed {
		return true, e.val
	}
	select {
	case err := <-e.errCh:
		e.val = err
		e.completed = true
		return true, err
	default:
		return false, nil
	}
}
