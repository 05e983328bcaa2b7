package service

import "errors"

var (
	ErrNotStarted     = errors.New("service not started")
	ErrInvalidCapture = errors.New("invalid capture")
	ErrQueueFull      = errors.New("capture queue full")
	ErrNotFound       = errors.New("not found")
)
