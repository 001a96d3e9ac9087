// Package config loads and validates the pipedeck YAML configuration.
package config

import "fmt"

// Defaults for the tunable delays. Both are deliberate demo constants:
// reconnection is a fixed delay with no backoff growth, and the second
// scripted turn fires a beat after the first turn completes.
const (
	DefaultReconnectDelayMs = 3000
	DefaultInterTurnDelayMs = 800
	DefaultMockPort         = 8000
	DefaultMockStepDelayMs  = 120
	DefaultBackendURL       = "ws://localhost:8000/ws"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with all defaults applied.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			URL: DefaultBackendURL,
		},
		Client: ClientConfig{
			CustomerID:       "C-1001",
			ReconnectDelayMs: DefaultReconnectDelayMs,
			InterTurnDelayMs: DefaultInterTurnDelayMs,
		},
		Mock: MockConfig{
			Port:        DefaultMockPort,
			StepDelayMs: DefaultMockStepDelayMs,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
