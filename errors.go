package sourcemap

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDestination is returned by SaveMap when the generator
	// wasn't configured with a path to write the map to
	ErrNoDestination = errors.New("no destination path configured for the source map")

	// ErrDestinationMissing is the configuration error of trying
	// to save a map into a directory that does not exist
	ErrDestinationMissing = errors.New("destination directory does not exist")

	// ErrWriteFailed is returned when the underlying write fails
	ErrWriteFailed = errors.New("cannot save the source map")

	// ErrSerialize means the document couldn't be rendered as JSON,
	// such as when a source or its content isn't valid UTF-8
	ErrSerialize = errors.New("cannot serialize source map")

	// ErrComposeLimit is returned when applying inline source maps
	// doesn't reach a fixed point within the configured passes
	ErrComposeLimit = errors.New("inline source maps did not converge")

	ErrMalformedMappings  = errors.New("malformed mappings")
	ErrUnsupportedVersion = errors.New("unsupported source map version")
	ErrInlineEncoding     = errors.New("unsupported inline source map encoding")

	ErrVLQInvalidDigit = errors.New("invalid base64 VLQ digit")
	ErrVLQTruncated    = errors.New("truncated base64 VLQ value")
	ErrVLQOverflow     = errors.New("base64 VLQ value overflows int")
)

// SaveError is returned by SaveMap and by the FileWriter.  Err is
// either ErrDestinationMissing or ErrWriteFailed, and errors.Is
// works with both.
type SaveError struct {
	Path  string
	Err   error
	Cause error
}

// Error returns the human readable representation of a save error
func (e *SaveError) Error() string {
	if errors.Is(e.Err, ErrDestinationMissing) {
		return fmt.Sprintf("the directory %q does not exist, cannot save the source map", e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("cannot save the source map to %q: %s", e.Path, e.Cause)
	}
	return fmt.Sprintf("cannot save the source map to %q", e.Path)
}

func (e *SaveError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// ComposeError is returned when the inline source map composition
// gives up.  Source is the last source whose embedded map was
// applied
type ComposeError struct {
	Passes int
	Source string
	Err    error
}

// Error returns the human readable representation of a compose error
func (e *ComposeError) Error() string {
	return fmt.Sprintf("%s after %d passes (last applied: %q)", e.Err, e.Passes, e.Source)
}

func (e *ComposeError) Unwrap() error { return e.Err }

// MappingsError points at the offset of the mappings string where
// decoding failed
type MappingsError struct {
	Offset int
	Err    error
}

func (e *MappingsError) Error() string {
	return fmt.Sprintf("%s @ %d", e.Err, e.Offset)
}

func (e *MappingsError) Unwrap() []error {
	return []error{ErrMalformedMappings, e.Err}
}
