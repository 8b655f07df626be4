package workflow

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned when a workflow runs without a signed-in user.
var ErrAuthRequired = errors.New("sign in required")

// ValidationError reports the first violated draft constraint. Validation is
// fail-fast: only one error is surfaced per attempt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ImageTooLargeError is returned before any upload is attempted when the
// attached image exceeds MaxImageBytes.
type ImageTooLargeError struct {
	Size int64
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("image is %d bytes, the limit is %d", e.Size, MaxImageBytes)
}

// UploadError wraps a blob-store failure. The submission is aborted; no
// record is created without its image.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("uploading image: %v", e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// StoreError wraps a record-store failure on insert.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("saving report: %v", e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }
