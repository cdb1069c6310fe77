package ocr

import (
	"fmt"
	"time"
)

// ImageReadError indicates the source file is missing, corrupt, or otherwise
// unreadable. It is fatal and aborts the whole pipeline immediately.
type ImageReadError struct {
	Path string
	Err  error
}

func (e *ImageReadError) Error() string {
	return fmt.Sprintf("cannot read image %s: %v", e.Path, e.Err)
}

func (e *ImageReadError) Unwrap() error { return e.Err }

// BackendUnavailableError indicates a backend's availability probe failed.
// It is not fatal while an alternative backend remains.
type BackendUnavailableError struct {
	Backend string
	Reason  string
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend %s unavailable: %s", e.Backend, e.Reason)
}

// BackendExecutionError indicates a selected backend crashed or returned
// malformed output mid-call. The selection strategy falls back to the next
// backend in priority order; only the last failure surfaces to the caller.
type BackendExecutionError struct {
	Backend string
	Err     error
}

func (e *BackendExecutionError) Error() string {
	return fmt.Sprintf("backend %s failed: %v", e.Backend, e.Err)
}

func (e *BackendExecutionError) Unwrap() error { return e.Err }

// BackendTimeoutError indicates a subprocess-based backend exceeded its time
// budget. For fallback purposes it is handled like an execution error, but it
// is kept distinct because a hang is a different failure class than a crash.
type BackendTimeoutError struct {
	Backend string
	Timeout time.Duration
}

func (e *BackendTimeoutError) Error() string {
	return fmt.Sprintf("backend %s timed out after %s", e.Backend, e.Timeout)
}

// NoBackendAvailableError indicates every candidate backend was either
// unavailable or failed. This is the terminal recognition error.
type NoBackendAvailableError struct {
	Attempts []error
}

func (e *NoBackendAvailableError) Error() string {
	if len(e.Attempts) == 0 {
		return "no OCR backend available"
	}
	msg := "no OCR backend available:"
	for _, a := range e.Attempts {
		msg += " [" + a.Error() + "]"
	}
	return msg
}

// TableDetectionError indicates table detection failed. It is independent of
// the OCR outcome and is recovered by omitting tables from the response.
type TableDetectionError struct {
	Err error
}

func (e *TableDetectionError) Error() string {
	return fmt.Sprintf("table detection failed: %v", e.Err)
}

func (e *TableDetectionError) Unwrap() error { return e.Err }
