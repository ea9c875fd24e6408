package realtime

import "errors"

var (
	ErrClosed              = errors.New("realtime connection is closed")
	ErrMalformedFrame      = errors.New("malformed STOMP frame")
	ErrInvalidHeaderEscape = errors.New("invalid escape sequence in STOMP header")
	ErrBrokerRefused       = errors.New("broker refused the STOMP connection")
)
