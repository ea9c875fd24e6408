package config

import (
	"flag"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// RealtimeConfig holds timeouts for the STOMP-over-WebSocket connection.
type RealtimeConfig struct {
	DialTimeout  time.Duration // Timeout for the WebSocket dial + STOMP handshake
	WriteTimeout time.Duration // Timeout for writing frames
	ReadTimeout  time.Duration // Read deadline, refreshed on any inbound traffic
	PingInterval time.Duration // Interval for WebSocket ping frames
}

type Config struct {
	// Backend endpoints
	APIBaseURL string // REST base, e.g. http://localhost:8080/api
	BrokerURL  string // STOMP broker, e.g. ws://localhost:8080/ws

	// Client behaviour
	LogLevel    string
	HTTPTimeout time.Duration
	SessionFile string

	// Maximum time to sit in the waiting room before giving up.
	// Zero waits until the host decides or the user walks away.
	PendingTimeout time.Duration

	Realtime RealtimeConfig
}

// FromEnv builds a Config from defaults overridden by environment variables.
// Flag overrides are applied separately via RegisterFlags so each subcommand
// can carry its own flag set.
func FromEnv() *Config {
	cfg := &Config{
		APIBaseURL:  "http://localhost:8080/api",
		BrokerURL:   "ws://localhost:8080/ws",
		LogLevel:    "info",
		HTTPTimeout: 15 * time.Second,
		SessionFile: defaultSessionFile(),

		Realtime: RealtimeConfig{
			DialTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  3 * time.Minute,
			PingInterval: 30 * time.Second,
		},
	}

	if v := os.Getenv("MEET_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("MEET_BROKER_URL"); v != "" {
		cfg.BrokerURL = v
	}
	if v := os.Getenv("MEET_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MEET_SESSION_FILE"); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv("MEET_HTTP_TIMEOUT"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			cfg.HTTPTimeout = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("MEET_PENDING_TIMEOUT"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			cfg.PendingTimeout = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("MEET_WS_WRITE_TIMEOUT"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			cfg.Realtime.WriteTimeout = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("MEET_WS_READ_TIMEOUT"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			cfg.Realtime.ReadTimeout = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("MEET_WS_PING_INTERVAL"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			cfg.Realtime.PingInterval = time.Duration(seconds) * time.Second
		}
	}

	return cfg
}

// RegisterFlags binds the common client flags onto a subcommand's flag set.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.APIBaseURL, "api", c.APIBaseURL, "REST API base URL")
	fs.StringVar(&c.BrokerURL, "broker", c.BrokerURL, "STOMP broker WebSocket URL")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.SessionFile, "session-file", c.SessionFile, "Path to the saved session file")
	fs.DurationVar(&c.PendingTimeout, "pending-timeout", c.PendingTimeout,
		"Give up waiting for host approval after this long (0 waits forever)")
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIURL
	}
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return ErrInvalidAPIURL
	}
	if c.BrokerURL == "" {
		return ErrMissingBrokerURL
	}
	u, err := url.Parse(c.BrokerURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return ErrInvalidBrokerURL
	}
	if c.PendingTimeout < 0 {
		return ErrNegativePendingTimeout
	}
	return nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".meetctl-session.json"
	}
	return filepath.Join(home, ".meetctl", "session.json")
}
