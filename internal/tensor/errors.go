package tensor

import "errors"

// Common errors.
var (
	ErrUnsupportedDevice = errors.New("device not supported by backend")
	ErrDataSize          = errors.New("data size does not match shape")
	ErrInvalidShape      = errors.New("invalid shape")
)
