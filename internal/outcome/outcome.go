// Package outcome describes the result of a best-effort side effect, such as
// arming a reminder or sending a notification, where the caller needs to know
// more than success or failure: an operation may also be deliberately skipped.
package outcome

import (
	"errors"
	"fmt"
	"log/slog"
)

// Status is the coarse result of an operation.
type Status string

// Possible statuses
const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result reports the status of an operation along with a human-readable
// reason and, for failures, the underlying error.
type Result struct {
	Status Status
	Reason string
	Err    error
}

// OK returns a successful result.
func OK() Result {
	return Result{Status: StatusOK}
}

// Skipped returns a result for an operation that was intentionally not performed.
func Skipped(reason string) Result {
	return Result{Status: StatusSkipped, Reason: reason}
}

// Failed returns a failed result. err may be nil when reason is enough.
func Failed(reason string, err error) Result {
	return Result{Status: StatusFailed, Reason: reason, Err: err}
}

// Succeeded reports whether the operation was performed successfully.
func (r Result) Succeeded() bool {
	return r.Status == StatusOK
}

// IsSkipped reports whether the operation was skipped.
func (r Result) IsSkipped() bool {
	return r.Status == StatusSkipped
}

// AsError converts a failed result into an error. OK and skipped results
// return nil.
func (r Result) AsError() error {
	if r.Status != StatusFailed {
		return nil
	}
	switch {
	case r.Err != nil && r.Reason != "":
		return fmt.Errorf("%s: %w", r.Reason, r.Err)
	case r.Err != nil:
		return r.Err
	case r.Reason != "":
		return errors.New(r.Reason)
	default:
		return errors.New("operation failed")
	}
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if r.Reason == "" {
		return string(r.Status)
	}
	return fmt.Sprintf("%s (%s)", r.Status, r.Reason)
}

// LogValue implements slog.LogValuer.
func (r Result) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("status", string(r.Status))}
	if r.Reason != "" {
		attrs = append(attrs, slog.String("reason", r.Reason))
	}
	if r.Err != nil {
		attrs = append(attrs, slog.String("error", r.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}
