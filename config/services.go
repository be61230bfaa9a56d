package config

import (
	"fmt"
	"strings"
	"time"
)

// ServiceMode identifies a runnable service within the process.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP API server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeRunner runs the background analysis runner.
	ServiceModeRunner ServiceMode = "runner"
)

// ParseServices parses a comma-separated list of service names into a set of
// enabled service modes. Unknown names produce an error.
func ParseServices(raw string) (map[ServiceMode]bool, error) {
	enabled := make(map[ServiceMode]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		mode := ServiceMode(name)
		switch mode {
		case ServiceModeHTTP, ServiceModeRunner:
			enabled[mode] = true
		default:
			return nil, fmt.Errorf("unknown service %q", name)
		}
	}
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no services enabled, valid services: %s, %s", ServiceModeHTTP, ServiceModeRunner)
	}
	return enabled, nil
}

// RunnerConfig contains analysis runner configuration.
type RunnerConfig struct {
	// Concurrency is the number of worker goroutines processing analysis jobs.
	Concurrency int `env:"RUNNER_CONCURRENCY" envDefault:"2"`

	// PollInterval bounds how long a worker sleeps between reservation
	// attempts when no submission wake-up arrives.
	PollInterval time.Duration `env:"RUNNER_POLL_INTERVAL" envDefault:"2s"`
}

// Sanitize applies guardrails to runner configuration values.
func (c *RunnerConfig) Sanitize() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
}
