package optoma

import "errors"

var (
	ErrPortOpen           = errors.New("optoma: could not open serial port")
	ErrWriteTimeout       = errors.New("optoma: write timed out")
	ErrShortWrite         = errors.New("optoma: partial write")
	ErrReadTimeout        = errors.New("optoma: no response before read timeout")
	ErrLineTooLong        = errors.New("optoma: response exceeds maximum line size")
	ErrShortInfoRecord    = errors.New("optoma: info record too short")
	ErrInvalidSourceIndex = errors.New("optoma: invalid input source index")
	ErrUnknownCommand     = errors.New("optoma: unknown command")
)
