package zarr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode classifies a consolidation failure. Check for a code with IsCode.
type ErrorCode string

const (
	// ErrNotAZarrGroup means the hierarchy root has no .zgroup document.
	ErrNotAZarrGroup ErrorCode = "NotAZarrGroup"
	// ErrUnsupportedFormat means the root reports a zarr_format other than 2.
	ErrUnsupportedFormat ErrorCode = "UnsupportedFormat"
	// ErrMissingCoreDocument means a node was detected as an array or group
	// but its core document could not be read.
	ErrMissingCoreDocument ErrorCode = "MissingCoreDocument"
	// ErrMalformedDocument means a metadata document is not valid JSON.
	ErrMalformedDocument ErrorCode = "MalformedDocument"
	// ErrDuplicateKey means one hierarchical key was assigned two different
	// documents.
	ErrDuplicateKey ErrorCode = "DuplicateKey"
	// ErrWriteFailure means the consolidated artifact could not be written.
	ErrWriteFailure ErrorCode = "WriteFailure"
	// ErrUnreadableDirectory is only reported when listing failures are
	// configured to be fatal.
	ErrUnreadableDirectory ErrorCode = "UnreadableDirectory"
	// ErrMaxDepthExceeded means the walk descended past Options.MaxDepth.
	ErrMaxDepthExceeded ErrorCode = "MaxDepthExceeded"
)

// Error is a coded error. Path is the store key the failure relates to and
// may be empty.
type Error struct {
	Code ErrorCode
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Path != "" {
		msg += fmt.Sprintf(" %q", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code ErrorCode, path string, err error) error {
	return errors.WithStack(&Error{Code: code, Path: path, Err: err})
}

// IsCode reports whether any error in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there
// is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
