package telegram

import (
	"errors"
	"time"
)

// DefaultAPIBaseURL is the public Bot API endpoint
const DefaultAPIBaseURL = "https://api.telegram.org"

// Config holds Bot API client settings
type Config struct {
	// Token is the bot token; an empty token leaves the client unconfigured
	Token string
	// APIBaseURL is overridden in tests and for self-hosted Bot API servers
	APIBaseURL string
	// Timeout bounds a single HTTP round trip
	Timeout time.Duration
	// RatePerSecond caps outbound calls; zero disables limiting
	RatePerSecond float64
	// BreakerTrips is the number of consecutive failures that open the circuit
	BreakerTrips uint32
	// BreakerReset is how long the circuit stays open before a trial request
	BreakerReset time.Duration
}

var errInvalidTimeout = errors.New("telegram: timeout must be positive")

// withDefaults fills zero values
func (c Config) withDefaults() Config {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.BreakerTrips == 0 {
		c.BreakerTrips = 5
	}
	if c.BreakerReset == 0 {
		c.BreakerReset = 30 * time.Second
	}
	return c
}

// Validate checks the settings
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return errInvalidTimeout
	}
	return nil
}
