package core

import "errors"

// Sentinel errors returned at suspension points, per spec §7.
var (
	ErrCanceled     = errors.New("mcoro: canceled")
	ErrTimeout      = errors.New("mcoro: timed out")
	ErrDisconnected = errors.New("mcoro: disconnected")
	// ErrFull is returned by a non-blocking send against a full bounded
	// channel.
	ErrFull = errors.New("mcoro: channel full")
	// ErrEmpty is returned by a non-blocking receive against an empty
	// channel.
	ErrEmpty = errors.New("mcoro: channel empty")
)
