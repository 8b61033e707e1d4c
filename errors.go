package hd44780

import "errors"

var (
	// ErrInvalidParameter is returned when a required argument is missing or
	// out of range.
	ErrInvalidParameter = errors.New("hd44780: invalid parameter")
	// ErrMessageTooLarge is returned when a write exceeds the display capacity.
	// Nothing is sent to the display.
	ErrMessageTooLarge = errors.New("hd44780: message too large")
	// ErrInterrupted is returned when the context is done before the bus lock
	// is acquired. Nothing is sent to the display.
	ErrInterrupted = errors.New("hd44780: interrupted")
	// ErrNotSupported is returned by Read; the display is write-only.
	ErrNotSupported = errors.New("hd44780: operation not supported")
	// ErrInvalidArgument is returned by Seek for a target past the capacity or
	// an unknown whence.
	ErrInvalidArgument = errors.New("hd44780: invalid argument")
	// ErrHalted is returned by every operation after Halt.
	ErrHalted = errors.New("hd44780: halted")
)
