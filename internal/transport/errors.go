package transport

import "errors"

var (
	// ErrUnknownDriver indicates no factory is registered under the requested name.
	ErrUnknownDriver = errors.New("unknown mail driver")

	// ErrNilTransport indicates a factory returned neither a transport nor an error.
	ErrNilTransport = errors.New("factory returned nil transport")
)
