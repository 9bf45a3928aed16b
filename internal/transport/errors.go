package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrUsage marks an operation invoked in a state that forbids it.
	// It signals a programmer error; callers should not retry it.
	ErrUsage            = errors.New("transport: usage violation")
	ErrNotConnected     = fmt.Errorf("%w: not connected", ErrUsage)
	ErrAlreadyConnected = fmt.Errorf("%w: already connected", ErrUsage)

	ErrTimeout      = errors.New("transport: timeout")
	ErrConnection   = errors.New("transport: connection failure")
	ErrDecoding     = errors.New("transport: malformed frame")
	ErrLineTooLong  = fmt.Errorf("%w: line exceeds limit", ErrDecoding)
	ErrNotSupported = errors.New("transport: operation not supported")
)
