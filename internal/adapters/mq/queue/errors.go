package queue

import "errors"

var (
	ErrFull   = errors.New("capture queue full")
	ErrClosed = errors.New("capture queue closed")
)
