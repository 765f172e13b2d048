// Package pipeerr classifies pipeline failures so callers can apply an
// explicit policy per kind instead of ad hoc per-call logging.
package pipeerr

import (
	"errors"
	"fmt"
)

// Kind partitions every failure the pipeline can observe.
type Kind int

const (
	// KindTransientNetwork covers socket and HTTP connectivity failures.
	// The streaming client reconnects; a periodic collector skips the tick.
	KindTransientNetwork Kind = iota
	// KindParse covers malformed upstream payloads. Always handled locally:
	// drop the offending record, keep the stream alive.
	KindParse
	// KindPublish covers broker rejections or an unreachable broker.
	KindPublish
	// KindStoreWrite covers store rejections or an unreachable store.
	KindStoreWrite
)

func (k Kind) String() string {
	switch k {
	case KindTransientNetwork:
		return "transient_network"
	case KindParse:
		return "parse"
	case KindPublish:
		return "publish"
	case KindStoreWrite:
		return "store_write"
	default:
		return "unknown"
	}
}

// Error couples a failure with its kind. It wraps the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with the given kind. Returns nil when err is nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Newf builds a classified error from a format string.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind from err. Unclassified errors report
// KindTransientNetwork false in the second return.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
