// Package config loads and validates the rxflow YAML configuration.
package config

// Config is the root configuration for rxflow.
type Config struct {
	LLM        LLMConfig        `yaml:"llm,omitempty"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge,omitempty"`
	Store      StoreConfig      `yaml:"store,omitempty"`
	Gateway    GatewayConfig    `yaml:"gateway,omitempty"`
	Escalation EscalationConfig `yaml:"escalation,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// LLMConfig selects the generative-text and embedding provider. The
// provider is chosen once at composition time; "stub" runs fully offline.
type LLMConfig struct {
	Provider        string `yaml:"provider,omitempty"` // "ollama" | "stub"
	Endpoint        string `yaml:"endpoint,omitempty"`
	GenerateModel   string `yaml:"generateModel,omitempty"`
	EmbedModel      string `yaml:"embedModel,omitempty"`
	ClassifyTimeout int    `yaml:"classifyTimeoutSeconds,omitempty"`
}

// KnowledgeConfig tunes the similarity index.
type KnowledgeConfig struct {
	Threshold   float64 `yaml:"threshold,omitempty"`   // similarity floor, (0,1]
	SearchLimit int     `yaml:"searchLimit,omitempty"` // default result window
}

// StoreConfig selects conversation/catalog persistence.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // "sqlite" | "memory"
	Path    string `yaml:"path,omitempty"`    // sqlite file; empty = <data>/rxflow.db
}

// GatewayConfig controls the webhook HTTP server.
type GatewayConfig struct {
	Port  int    `yaml:"port,omitempty"`
	Bind  string `yaml:"bind,omitempty"` // "loopback" (default) | "lan" | "auto"
	Token string `yaml:"token,omitempty"`
}

// EscalationConfig controls operator notification.
type EscalationConfig struct {
	// Notifiers lists enabled notifier names: "log", "operators" (the
	// websocket feed). Empty enables both.
	Notifiers []string `yaml:"notifiers,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent".."trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
}

// ConfigError reports a configuration problem.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }
