package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} references in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} references with environment values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// Load reads the config file, fills defaults, and applies environment
// overrides. A missing file yields the defaults with overrides applied.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	cfg.Backend.APIKey = expandEnvVars(cfg.Backend.APIKey)
	return cfg, nil
}

// applyDefaults fills zero-value fields after unmarshalling, since a
// partially populated file clobbers Defaults().
func applyDefaults(cfg *Config) {
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = DefaultBackendURL
	}
	if cfg.Client.CustomerID == "" {
		cfg.Client.CustomerID = "C-1001"
	}
	if cfg.Client.ReconnectDelayMs == 0 {
		cfg.Client.ReconnectDelayMs = DefaultReconnectDelayMs
	}
	if cfg.Client.InterTurnDelayMs == 0 {
		cfg.Client.InterTurnDelayMs = DefaultInterTurnDelayMs
	}
	if cfg.Mock.Port == 0 {
		cfg.Mock.Port = DefaultMockPort
	}
	if cfg.Mock.StepDelayMs == 0 {
		cfg.Mock.StepDelayMs = DefaultMockStepDelayMs
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PIPEDECK_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("PIPEDECK_BACKEND_HTTP_URL"); v != "" {
		cfg.Backend.HTTPURL = v
	}
	if v := os.Getenv("PIPEDECK_CUSTOMER_ID"); v != "" {
		cfg.Client.CustomerID = v
	}
	if v := os.Getenv("PIPEDECK_MOCK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Mock.Port = port
		}
	}
	if v := os.Getenv("PIPEDECK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

// HTTPBase returns the REST base URL, deriving it from the WebSocket URL
// when backend.httpUrl is unset: ws(s)://host/ws becomes http(s)://host.
func (c BackendConfig) HTTPBase() string {
	if c.HTTPURL != "" {
		return strings.TrimSuffix(c.HTTPURL, "/")
	}
	base := c.URL
	switch {
	case strings.HasPrefix(base, "wss://"):
		base = "https://" + strings.TrimPrefix(base, "wss://")
	case strings.HasPrefix(base, "ws://"):
		base = "http://" + strings.TrimPrefix(base, "ws://")
	}
	base = strings.TrimSuffix(base, "/ws")
	return strings.TrimSuffix(base, "/")
}
