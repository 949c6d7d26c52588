package domain

import "errors"

var (
	// ErrTransportExhausted is returned once every connect attempt failed.
	ErrTransportExhausted = errors.New("transport: connect attempts exhausted")
	// ErrCommandFailed marks a single relay command that was rejected or timed out.
	ErrCommandFailed = errors.New("relay command failed")
	// ErrPerception marks a frame that could not be decoded.
	ErrPerception = errors.New("perception: undecodable frame")
	// ErrFrameStarvation is returned when vision stopped delivering frames.
	ErrFrameStarvation = errors.New("vision: frame starvation")
	// ErrRunAborted marks a run that ended on an unexpected error or panic.
	ErrRunAborted = errors.New("run aborted")
)
