// Package errors provides centralized error definitions and error handling utilities
// for teamctl. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - TeamError: errors related to team definitions and team-level operations
//   - AgentError: errors related to an individual agent and its session
//
// Semantic errors represent the terminal conditions a command can hit:
//   - NotFoundError: team or agent identifier unresolved
//   - AlreadyExistsError: a file that would be overwritten
//   - ValidationError: advisory configuration problems
//   - PreconditionError: disabled team, empty task, missing lead
//   - ConflictError: a session or lock already held
//   - CollaboratorError: the session manager or agent-manager reported failure
//   - PersistenceError: best-effort writes that failed (never surfaced as fatal)
//
// # Usage
//
//	err := errors.NewPreconditionError("task cannot be empty", errors.ErrEmptyTask).
//		WithHint("Provide task via stdin or --task-file")
//
//	if errors.Is(err, errors.ErrEmptyTask) { ... }
//
//	var conflict *errors.ConflictError
//	if errors.As(err, &conflict) { ... }
//
// Commands print Error() followed by Hints(err), then exit with ExitCode(err).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Team-related sentinel errors
var (
	// ErrTeamNotFound indicates that no team matched the identifier.
	ErrTeamNotFound = New("team not found")
	// ErrTeamDisabled indicates that the team has enabled: false.
	ErrTeamDisabled = New("team is disabled")
	// ErrTeamInvalid indicates that a team definition failed validation.
	ErrTeamInvalid = New("team configuration is invalid")
	// ErrTeamExists indicates that a team file already exists.
	ErrTeamExists = New("team already exists")
	// ErrTeamLocked indicates that another assignment holds the team lock.
	ErrTeamLocked = New("team is locked by another assignment")
	// ErrNoLead indicates that the team declares no lead agent.
	ErrNoLead = New("team has no lead agent")
)

// Agent-related sentinel errors
var (
	// ErrAgentNotFound indicates that no agent definition matched the employee ID.
	ErrAgentNotFound = New("agent not found")
	// ErrSessionRunning indicates that the agent session is already alive.
	ErrSessionRunning = New("agent session already running")
	// ErrSessionNotRunning indicates that the agent session is not alive.
	ErrSessionNotRunning = New("agent session not running")
	// ErrStartFailed indicates that starting an agent session failed.
	ErrStartFailed = New("agent failed to start")
	// ErrDeliveryFailed indicates that a message could not be delivered.
	ErrDeliveryFailed = New("message delivery failed")
	// ErrCollaboratorTimeout indicates that an agent-manager call was cut off
	// by the configured timeout.
	ErrCollaboratorTimeout = New("agent-manager call timed out")
	// ErrDelegationUnavailable indicates that no task-delegation mechanism is available.
	ErrDelegationUnavailable = New("agent-manager unavailable")
)

// General sentinel errors
var (
	// ErrEmptyTask indicates that the task text is empty after trimming.
	ErrEmptyTask = New("task cannot be empty")
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = New("invalid input")
	// ErrPersistence indicates a best-effort write failed.
	ErrPersistence = New("persistence failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// TeamctlError is the base interface for all teamctl errors.
type TeamctlError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
	hints      []string
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// Hints returns remediation lines attached to the error.
func (e *baseError) Hints() []string {
	return e.hints
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// TeamError represents errors related to a team definition or team-level operation.
//
// Example:
//
//	err := errors.NewTeamError("failed to parse front matter", cause).WithTeam("backend")
//	fmt.Println(err) // "team error [team=backend]: failed to parse front matter: ..."
type TeamError struct {
	baseError
	Team string
	File string
}

// NewTeamError creates a new TeamError.
func NewTeamError(message string, cause error) *TeamError {
	return &TeamError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithTeam adds the team name to the error context.
func (e *TeamError) WithTeam(name string) *TeamError {
	e.Team = name
	return e
}

// WithFile adds the definition file path to the error context.
func (e *TeamError) WithFile(path string) *TeamError {
	e.File = path
	return e
}

// Error returns the formatted error message.
func (e *TeamError) Error() string {
	var parts []string
	if e.Team != "" {
		parts = append(parts, fmt.Sprintf("team=%s", e.Team))
	}
	if e.File != "" {
		parts = append(parts, fmt.Sprintf("file=%s", e.File))
	}
	return formatWithContext("team error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *TeamError) Is(target error) bool {
	if _, ok := target.(*TeamError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AgentError represents errors related to an individual agent and its session.
//
// Example:
//
//	err := errors.NewAgentError("capture failed", cause).
//		WithEmployeeID("EMP_0001").WithSession("agent-emp-0001")
type AgentError struct {
	baseError
	EmployeeID string
	Session    string
}

// NewAgentError creates a new AgentError.
func NewAgentError(message string, cause error) *AgentError {
	return &AgentError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithEmployeeID adds the employee ID to the error context.
func (e *AgentError) WithEmployeeID(id string) *AgentError {
	e.EmployeeID = id
	return e
}

// WithSession adds the session name to the error context.
func (e *AgentError) WithSession(session string) *AgentError {
	e.Session = session
	return e
}

// Error returns the formatted error message.
func (e *AgentError) Error() string {
	var parts []string
	if e.EmployeeID != "" {
		parts = append(parts, fmt.Sprintf("agent=%s", e.EmployeeID))
	}
	if e.Session != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.Session))
	}
	return formatWithContext("agent error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *AgentError) Is(target error) bool {
	if _, ok := target.(*AgentError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// formatWithContext renders "prefix [k=v, ...]: message: cause".
func formatWithContext(prefix string, parts []string, message string, cause error) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("team", "frontend").WithAlternatives([]string{"backend"})
//	fmt.Println(err) // "team 'frontend' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
	Alternatives []string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// WithAlternatives records identifiers that do exist.
func (e *NotFoundError) WithAlternatives(alts []string) *NotFoundError {
	e.Alternatives = alts
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// WithHint appends a remediation line.
func (e *AlreadyExistsError) WithHint(hint string) *AlreadyExistsError {
	e.hints = append(e.hints, hint)
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	return e.message
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// PreconditionError represents a terminal condition detected before any side
// effect: a disabled team, an empty task, a missing lead.
//
// Example:
//
//	err := errors.NewPreconditionError("Team 'web' is disabled", errors.ErrTeamDisabled).
//		WithHint("To enable: Set 'enabled: true' in the team config")
type PreconditionError struct {
	baseError
}

// NewPreconditionError creates a new PreconditionError.
func NewPreconditionError(message string, cause error) *PreconditionError {
	return &PreconditionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithHint appends a remediation line.
func (e *PreconditionError) WithHint(hint string) *PreconditionError {
	e.hints = append(e.hints, hint)
	return e
}

// Error returns the message without the cause; the cause is a sentinel
// used for classification.
func (e *PreconditionError) Error() string {
	return e.message
}

// Is checks if this error matches the target.
func (e *PreconditionError) Is(target error) bool {
	if _, ok := target.(*PreconditionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ConflictError represents a resource already held: a running session the
// caller wanted fresh, or a team lock owned by another process.
type ConflictError struct {
	baseError
	Resource string
}

// NewConflictError creates a new ConflictError.
func NewConflictError(message string, cause error) *ConflictError {
	return &ConflictError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithResource names the contended resource.
func (e *ConflictError) WithResource(resource string) *ConflictError {
	e.Resource = resource
	return e
}

// WithHint appends a remediation line.
func (e *ConflictError) WithHint(hint string) *ConflictError {
	e.hints = append(e.hints, hint)
	return e
}

// Error returns the formatted error message.
func (e *ConflictError) Error() string {
	return e.message
}

// Is checks if this error matches the target.
func (e *ConflictError) Is(target error) bool {
	if _, ok := target.(*ConflictError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// CollaboratorError represents a failure reported by an external
// collaborator (tmux, agent-manager). Stderr carries its raw text.
//
// Example:
//
//	err := errors.NewCollaboratorError("start", errors.ErrStartFailed).
//		WithExitCode(1).WithStderr("no such agent")
//	fmt.Println(err) // "Failed to start lead agent: no such agent"
type CollaboratorError struct {
	baseError
	Operation string
	ExitCode  int
	Stderr    string
}

// NewCollaboratorError creates a new CollaboratorError for the given operation.
func NewCollaboratorError(operation string, cause error) *CollaboratorError {
	return &CollaboratorError{
		baseError: baseError{
			message:    operation,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Operation: operation,
	}
}

// WithMessage overrides the headline shown to users.
func (e *CollaboratorError) WithMessage(message string) *CollaboratorError {
	e.message = message
	return e
}

// WithExitCode records the collaborator's exit code.
func (e *CollaboratorError) WithExitCode(code int) *CollaboratorError {
	e.ExitCode = code
	return e
}

// WithStderr records the collaborator's raw error output.
func (e *CollaboratorError) WithStderr(stderr string) *CollaboratorError {
	e.Stderr = stderr
	return e
}

// WithHint appends a remediation line.
func (e *CollaboratorError) WithHint(hint string) *CollaboratorError {
	e.hints = append(e.hints, hint)
	return e
}

// Error returns the headline followed by the collaborator's raw output.
func (e *CollaboratorError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" && e.cause != nil {
		detail = e.cause.Error()
	}
	if detail == "" {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, detail)
}

// Is checks if this error matches the target.
func (e *CollaboratorError) Is(target error) bool {
	if _, ok := target.(*CollaboratorError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// PersistenceError represents a failed best-effort write. Callers log it and
// continue; it never aborts the primary operation.
type PersistenceError struct {
	baseError
	Path string
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(path string, cause error) *PersistenceError {
	return &PersistenceError{
		baseError: baseError{
			message:    "failed to persist " + path,
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: false,
		},
		Path: path,
	}
}

// Is checks if this error matches the target.
func (e *PersistenceError) Is(target error) bool {
	if _, ok := target.(*PersistenceError); ok {
		return true
	}
	if target == ErrPersistence {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var teamctlErr TeamctlError
	if As(err, &teamctlErr) {
		return teamctlErr.IsUserFacing()
	}
	return false
}

// IsTerminal returns true if the error belongs to a category that aborts a
// command. Persistence failures are advisory.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}

	var persistence *PersistenceError
	return !As(err, &persistence)
}

// Hints collects remediation lines from the first error in the chain that
// carries any.
func Hints(err error) []string {
	var h interface{ Hints() []string }
	if As(err, &h) {
		return h.Hints()
	}
	return nil
}

// ExitCode maps an error to the process exit code: 0 on success, 1 on any
// terminal failure.
func ExitCode(err error) int {
	if err == nil || !IsTerminal(err) {
		return 0
	}
	return 1
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
