package config

import "errors"

var (
	ErrMissingAPIURL          = errors.New("API base URL is required (set MEET_API_URL env var or --api flag)")
	ErrInvalidAPIURL          = errors.New("API base URL is not a valid URL")
	ErrMissingBrokerURL       = errors.New("broker URL is required (set MEET_BROKER_URL env var or --broker flag)")
	ErrInvalidBrokerURL       = errors.New("broker URL must be a ws:// or wss:// URL")
	ErrNegativePendingTimeout = errors.New("pending timeout must not be negative")
)
