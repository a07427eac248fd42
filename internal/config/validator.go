package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "monitor.lines")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// sessionPrefixRegex restricts prefixes to characters tmux accepts in
// session names without quoting ('.' and ':' are target separators)
var sessionPrefixRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]*$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateTmux()...)
	errors = append(errors, c.validateAgentManager()...)
	errors = append(errors, c.validateMonitor()...)
	errors = append(errors, c.validateStatus()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateTmux() []ValidationError {
	var errors []ValidationError

	if !sessionPrefixRegex.MatchString(c.Tmux.SessionPrefix) {
		errors = append(errors, ValidationError{
			Field:   "tmux.session_prefix",
			Value:   c.Tmux.SessionPrefix,
			Message: "may only contain letters, digits, '-' and '_'",
		})
	}
	if c.Tmux.Width < 0 {
		errors = append(errors, ValidationError{
			Field:   "tmux.width",
			Value:   c.Tmux.Width,
			Message: "must be non-negative",
		})
	}
	if c.Tmux.Height < 0 {
		errors = append(errors, ValidationError{
			Field:   "tmux.height",
			Value:   c.Tmux.Height,
			Message: "must be non-negative",
		})
	}
	if c.Tmux.HistoryLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "tmux.history_limit",
			Value:   c.Tmux.HistoryLimit,
			Message: "must be non-negative",
		})
	}
	if c.Tmux.ReadyTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "tmux.ready_timeout_seconds",
			Value:   c.Tmux.ReadyTimeoutSeconds,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateAgentManager() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidModes(), c.AgentManager.Mode) {
		errors = append(errors, ValidationError{
			Field:   "agent_manager.mode",
			Value:   c.AgentManager.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidModes(), ", ")),
		})
	}
	if c.AgentManager.TimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "agent_manager.timeout_seconds",
			Value:   c.AgentManager.TimeoutSeconds,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateMonitor() []ValidationError {
	var errors []ValidationError

	if c.Monitor.Lines < 1 {
		errors = append(errors, ValidationError{
			Field:   "monitor.lines",
			Value:   c.Monitor.Lines,
			Message: "must be at least 1",
		})
	}

	// Anything faster hammers tmux for no visible benefit
	const minIntervalMs = 100
	if c.Monitor.IntervalMs < minIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "monitor.interval_ms",
			Value:   c.Monitor.IntervalMs,
			Message: fmt.Sprintf("must be at least %d", minIntervalMs),
		})
	}

	return errors
}

func (c *Config) validateStatus() []ValidationError {
	var errors []ValidationError

	if c.Status.StuckAfterSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "status.stuck_after_seconds",
			Value:   c.Status.StuckAfterSeconds,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
