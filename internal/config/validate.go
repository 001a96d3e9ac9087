package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if !strings.HasPrefix(cfg.Backend.URL, "ws://") && !strings.HasPrefix(cfg.Backend.URL, "wss://") {
		issues = append(issues, ValidationIssue{
			Path:    "backend.url",
			Message: fmt.Sprintf("must be a ws:// or wss:// URL, got %q", cfg.Backend.URL),
		})
	}

	if cfg.Client.ReconnectDelayMs < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "client.reconnectDelayMs",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.Client.ReconnectDelayMs),
		})
	}
	if cfg.Client.InterTurnDelayMs < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "client.interTurnDelayMs",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.Client.InterTurnDelayMs),
		})
	}

	if cfg.Mock.Port < 0 || cfg.Mock.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "mock.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Mock.Port),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
