package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds the polling bounds for the two wait loops in a run.
// Defaults match the batch sizes this tool is used for; each can be
// overridden via environment variable for slow networks.
type Timeouts struct {
	NetworkAttempts int           // Attempts to wait for the guest to report an IPv4 address
	NetworkInterval time.Duration // Delay between network readiness attempts
	DNSInterval     time.Duration // Delay between DNS resolvability checks
	DNSTimeout      time.Duration // Total budget for DNS propagation per entry
}

// LoadTimeouts loads polling bounds from environment variables.
// If a variable is unset or invalid, the default is used.
//
// Environment Variables:
//   - STUDENTHOST_NETWORK_ATTEMPTS (default: 12)
//   - STUDENTHOST_NETWORK_INTERVAL (default: 5s)
//   - STUDENTHOST_DNS_INTERVAL (default: 2s)
//   - STUDENTHOST_DNS_TIMEOUT (default: 15m)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		NetworkAttempts: parseInt("STUDENTHOST_NETWORK_ATTEMPTS", 12),
		NetworkInterval: parseDuration("STUDENTHOST_NETWORK_INTERVAL", 5*time.Second),
		DNSInterval:     parseDuration("STUDENTHOST_DNS_INTERVAL", 2*time.Second),
		DNSTimeout:      parseDuration("STUDENTHOST_DNS_TIMEOUT", 15*time.Minute),
	}
}

func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
