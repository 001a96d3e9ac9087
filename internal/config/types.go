package config

// Config is the root configuration for pipedeck.
type Config struct {
	Backend    BackendConfig    `yaml:"backend,omitempty"`
	Client     ClientConfig     `yaml:"client,omitempty"`
	Mock       MockConfig       `yaml:"mock,omitempty"`
	Transcript TranscriptConfig `yaml:"transcript,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// BackendConfig locates the pipeline backend.
type BackendConfig struct {
	// URL is the WebSocket endpoint the event stream is consumed from.
	URL string `yaml:"url,omitempty"`
	// HTTPURL is the base URL for the customers/scenarios REST endpoints.
	// Derived from URL when empty.
	HTTPURL string `yaml:"httpUrl,omitempty"`
	// APIKey is sent as a bearer token when set. Supports ${VAR} expansion.
	APIKey string `yaml:"apiKey,omitempty"`
}

// ClientConfig tunes the stream client and turn sequencing.
type ClientConfig struct {
	CustomerID       string `yaml:"customerId,omitempty"`
	ReconnectDelayMs int    `yaml:"reconnectDelayMs,omitempty"`
	InterTurnDelayMs int    `yaml:"interTurnDelayMs,omitempty"`
}

// MockConfig tunes the built-in mock backend started by `pipedeck serve`.
type MockConfig struct {
	Port int `yaml:"port,omitempty"`
	// StepDelayMs is the simulated latency between pipeline events.
	StepDelayMs int `yaml:"stepDelayMs,omitempty"`
}

// TranscriptConfig configures event-transcript recording.
type TranscriptConfig struct {
	// Path of the SQLite transcript database. Defaults to
	// ~/.pipedeck/data/transcripts.db.
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
