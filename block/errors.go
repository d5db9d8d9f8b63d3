package block

import "fmt"

// errorType is a plain-string error, used for sentinel conditions that carry
// no extra data. Modeled on the store/types error taxonomy.
type errorType string

func (e errorType) Error() string {
	return string(e)
}

const (
	// ErrTooSmall is returned when a file is smaller than the magic header
	// plus the fixed meta trailer and therefore cannot possibly hold a valid
	// block.
	ErrTooSmall = errorType("block: file too small to contain a meta trailer")

	// ErrBadMagic is returned when the 4-byte header, or the magic echoed
	// in the meta trailer, does not match the expected constant.
	ErrBadMagic = errorType("block: bad magic")

	// ErrNotFound is returned by Get when a key has no entry. It is a
	// routine, cheap-to-produce result, not a failure of the block itself.
	ErrNotFound = errorType("block: key not found")

	// ErrClosed is returned by any operation attempted on a Block that has
	// been closed, or whose Close has started.
	ErrClosed = errorType("block: use of closed block")

	// ErrNotOpen is returned by Get when called before Open has completed.
	ErrNotOpen = errorType("block: block is not open")
)

// CorruptionError reports a structural inconsistency detected in a block's
// meta trailer, bucket array, entry records, or compressed payload. It is
// fatal to the specific Get (or to Open) that produced it; unlike
// OpenIOError it says nothing about the health of the underlying file
// descriptor or mapping.
type CorruptionError struct {
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("block: corruption: %s", e.Reason)
}

// OpenIOError wraps a failure of the underlying filesystem or mmap layer
// encountered while opening a block, or by Get when a read from the mapped
// data segment fails. Op names the step that failed (stat, read, mmap,
// mmap read, ...) so callers can tell a bad disk apart from a bad file.
type OpenIOError struct {
	Op  string
	Err error
}

func (e *OpenIOError) Error() string {
	return fmt.Sprintf("block: open: %s: %v", e.Op, e.Err)
}

func (e *OpenIOError) Unwrap() error {
	return e.Err
}
