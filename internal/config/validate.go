package config

import (
	"fmt"
	"slices"
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

	validProviders := []string{"ollama", "stub"}
	if cfg.LLM.Provider != "" && !slices.Contains(validProviders, cfg.LLM.Provider) {
		issues = append(issues, ValidationIssue{
			Path:    "llm.provider",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, cfg.LLM.Provider),
		})
	}
	if cfg.LLM.ClassifyTimeout < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "llm.classifyTimeoutSeconds",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.LLM.ClassifyTimeout),
		})
	}

	if cfg.Knowledge.Threshold < 0 || cfg.Knowledge.Threshold > 1 {
		issues = append(issues, ValidationIssue{
			Path:    "knowledge.threshold",
			Message: fmt.Sprintf("must be in [0,1], got %g", cfg.Knowledge.Threshold),
		})
	}
	if cfg.Knowledge.SearchLimit < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "knowledge.searchLimit",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.Knowledge.SearchLimit),
		})
	}

	validBackends := []string{"sqlite", "memory"}
	if cfg.Store.Backend != "" && !slices.Contains(validBackends, cfg.Store.Backend) {
		issues = append(issues, ValidationIssue{
			Path:    "store.backend",
			Message: fmt.Sprintf("must be one of %v, got %q", validBackends, cfg.Store.Backend),
		})
	}

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "auto"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	validNotifiers := []string{"log", "operators"}
	for _, n := range cfg.Escalation.Notifiers {
		if !slices.Contains(validNotifiers, n) {
			issues = append(issues, ValidationIssue{
				Path:    "escalation.notifiers",
				Message: fmt.Sprintf("must be one of %v, got %q", validNotifiers, n),
			})
		}
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	return issues
}
