package monitor

import (
	"errors"
	"fmt"
)

// ErrNoDataYet is returned by the block reader when the producer has not
// written a complete line yet. It is not an end of stream.
var ErrNoDataYet = errors.New("no data yet")

// ErrPrematureBlock means a block was started but one of its detail lines is
// still being written. It is handled like ErrNoDataYet.
var ErrPrematureBlock = fmt.Errorf("premature block: %w", ErrNoDataYet)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrMalformedHit represents a line that could not be decoded into a hit.
type ErrMalformedHit struct {
	Line       string
	LineNumber int
	Err        error
}

func (e *ErrMalformedHit) Error() string {
	return fmt.Sprintf("malformed hit at line %d %q: %v", e.LineNumber, e.Line, e.Err)
}

func (e *ErrMalformedHit) Unwrap() error {
	return e.Err
}

// ErrHitOutOfRange represents a hit whose board or channel does not fit
// the configured number of CAEN units and channels.
type ErrHitOutOfRange struct {
	Board   int
	Channel int
}

func (e *ErrHitOutOfRange) Error() string {
	return fmt.Sprintf("hit out of range: board %d, channel %d", e.Board, e.Channel)
}
