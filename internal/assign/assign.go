// Package assign hands a task to a team: it validates the request, records
// it, composes the lead's briefing and gets that briefing into the lead
// agent's session, starting the session first when needed.
//
// Nothing is retried. Once a start or delivery has been issued it runs to
// completion even if the caller's context is canceled.
package assign

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Iron-Ham/teamctl/internal/agent"
	"github.com/Iron-Ham/teamctl/internal/briefing"
	"github.com/Iron-Ham/teamctl/internal/delegate"
	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/logging"
	"github.com/Iron-Ham/teamctl/internal/team"
)

// Teams resolves team identifiers.
type Teams interface {
	Resolve(identifier string) (*team.Config, error)
}

// Agents resolves employee IDs.
type Agents interface {
	Resolve(employeeID string) (*agent.Config, error)
	DisplayName(employeeID string) string
}

// Sessions is the subset of the session manager the orchestrator needs.
type Sessions interface {
	SessionName(cfg *agent.Config) string
	Alive(ctx context.Context, cfg *agent.Config) bool
	Deliver(ctx context.Context, cfg *agent.Config, message string) error
}

// Records persists the last task per team.
type Records interface {
	Save(team, task string) (string, error)
}

// Composer builds the lead's briefing.
type Composer interface {
	Compose(cfg *team.Config, task string) briefing.Briefing
}

// Locker serializes assignments to the same team.
type Locker interface {
	Lock(team string) (release func(), err error)
}

// EventKind identifies a progress event.
type EventKind int

const (
	// EventMissingSkills: some declared skills could not be loaded.
	EventMissingSkills EventKind = iota
	// EventRecordFailed: the task record could not be written.
	EventRecordFailed
	// EventDegraded: no delegation mechanism; delivering directly.
	EventDegraded
	// EventReusing: the lead's session is already running and will be reused.
	EventReusing
	// EventStarting: the lead's session is being started.
	EventStarting
	// EventStarted: the lead's session started.
	EventStarted
)

// Event reports progress to the caller.
type Event struct {
	Kind     EventKind
	LeadID   string
	LeadName string
	Skills   []string
	Err      error
}

// Request is one assignment.
type Request struct {
	Team string
	Task string
	// Restore reuses a running lead session. When false a running session
	// is a conflict.
	Restore bool
}

// Result describes a completed assignment.
type Result struct {
	AssignmentID  string
	Team          string
	LeadID        string
	LeadName      string
	WorkingDir    string
	Session       string
	Reused        bool
	Started       bool
	Degraded      bool
	RecordPath    string
	MissingSkills []string
}

// Orchestrator runs assignments.
type Orchestrator struct {
	teams     Teams
	agents    Agents
	sessions  Sessions
	records   Records
	composer  Composer
	delegator delegate.Delegator
	locker    Locker
	startHint string
	stopHint  string
	onEvent   func(Event)
	logger    *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelegator sets the delegation mechanism. Without one every
// assignment takes the degraded path.
func WithDelegator(d delegate.Delegator) Option {
	return func(o *Orchestrator) { o.delegator = d }
}

// WithLocker enables the per-team assignment lock.
func WithLocker(l Locker) Option {
	return func(o *Orchestrator) { o.locker = l }
}

// WithStartHint sets the command suggested for starting agents by hand.
func WithStartHint(hint string) Option {
	return func(o *Orchestrator) { o.startHint = hint }
}

// WithStopHint sets the command suggested for stopping a team.
func WithStopHint(hint string) Option {
	return func(o *Orchestrator) { o.stopHint = hint }
}

// WithEvents registers a progress callback.
func WithEvents(fn func(Event)) Option {
	return func(o *Orchestrator) { o.onEvent = fn }
}

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New returns an Orchestrator.
func New(teams Teams, agents Agents, sessions Sessions, records Records, composer Composer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		teams:     teams,
		agents:    agents,
		sessions:  sessions,
		records:   records,
		composer:  composer,
		startHint: delegate.DefaultHint,
		stopHint:  "teamctl stop",
		onEvent:   func(Event) {},
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Assign runs one assignment.
func (o *Orchestrator) Assign(ctx context.Context, req Request) (*Result, error) {
	cfg, err := o.teams.Resolve(req.Team)
	if err != nil {
		return nil, err
	}
	if err := team.RequireEnabled(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Task) == "" {
		return nil, errors.NewPreconditionError("Task cannot be empty", errors.ErrEmptyTask).
			WithHint("Provide task via stdin or --task-file")
	}

	res := &Result{
		AssignmentID: uuid.NewString(),
		Team:         cfg.Name,
		WorkingDir:   cfg.WorkingDirectory,
	}
	log := o.logger.WithTeam(cfg.Name).WithAssignment(res.AssignmentID)
	log.Info("assignment requested", "restore", req.Restore, "task_bytes", len(req.Task))

	if path, err := o.records.Save(cfg.Name, req.Task); err != nil {
		log.Warn("failed to record task", "error", err)
		o.onEvent(Event{Kind: EventRecordFailed, Err: err})
	} else {
		res.RecordPath = path
	}

	if err := team.RequireLead(cfg); err != nil {
		return nil, err
	}
	lead := cfg.LeadAgent
	res.LeadID = lead
	res.LeadName = o.agents.DisplayName(lead)

	b := o.composer.Compose(cfg, req.Task)
	res.MissingSkills = b.MissingSkills
	if len(b.MissingSkills) > 0 {
		log.Warn("missing team skills", "skills", b.MissingSkills)
		o.onEvent(Event{Kind: EventMissingSkills, Skills: b.MissingSkills})
	}

	if o.locker != nil {
		release, err := o.locker.Lock(cfg.Name)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	// Side effects from here on are not canceled mid-flight.
	ctx = context.WithoutCancel(ctx)

	if o.delegator == nil {
		return o.assignDirect(ctx, log, b.Text, res)
	}
	return o.assignDelegated(ctx, log, cfg, req, b.Text, res)
}

// assignDirect delivers into an already running lead session. It never
// starts a session.
func (o *Orchestrator) assignDirect(ctx context.Context, log *logging.Logger, text string, res *Result) (*Result, error) {
	res.Degraded = true
	o.onEvent(Event{Kind: EventDegraded, LeadID: res.LeadID, LeadName: res.LeadName})

	ac, err := o.agents.Resolve(res.LeadID)
	if err != nil {
		return nil, errors.NewNotFoundError("Lead agent", res.LeadID).WithCause(errors.ErrAgentNotFound)
	}
	res.Session = o.sessions.SessionName(ac)

	if !o.sessions.Alive(ctx, ac) {
		return nil, errors.NewPreconditionError(
			fmt.Sprintf("Lead agent '%s' is not running", res.LeadID), errors.ErrSessionNotRunning).
			WithHint(fmt.Sprintf("Start with: %s start %s", o.startHint, res.LeadID))
	}
	if err := o.sessions.Deliver(ctx, ac, text); err != nil {
		return nil, err
	}
	log.Info("task delivered directly", "lead", res.LeadID, "session", res.Session)
	return res, nil
}

func (o *Orchestrator) assignDelegated(ctx context.Context, log *logging.Logger, cfg *team.Config, req Request, text string, res *Result) (*Result, error) {
	lead := res.LeadID

	// An unresolved lead may still be known to the delegation mechanism, so
	// it is handed the assignment without a start attempt.
	if ac, err := o.agents.Resolve(lead); err == nil {
		res.Session = o.sessions.SessionName(ac)
		alive := o.sessions.Alive(ctx, ac)
		switch {
		case alive && req.Restore:
			res.Reused = true
			o.onEvent(Event{Kind: EventReusing, LeadID: lead, LeadName: res.LeadName})
		case alive:
			return nil, errors.NewConflictError(
				fmt.Sprintf("Lead agent '%s' (%s) is already running", lead, res.LeadName), errors.ErrSessionRunning).
				WithResource(res.Session).
				WithHint("Session: " + res.Session).
				WithHint("To assign to the existing session, use --restore (default)").
				WithHint(fmt.Sprintf("To stop first: %s %s", o.stopHint, cfg.Name)).
				WithHint(fmt.Sprintf("Or: %s stop %s", o.startHint, lead))
		default:
			o.onEvent(Event{Kind: EventStarting, LeadID: lead, LeadName: res.LeadName})
			if err := o.delegator.Start(ctx, lead, cfg.WorkingDirectory); err != nil {
				log.Error("lead start failed", "lead", lead, "via", o.delegator.Name(), "error", err)
				return nil, err
			}
			res.Started = true
			o.onEvent(Event{Kind: EventStarted, LeadID: lead, LeadName: res.LeadName})
		}
	} else {
		log.Debug("lead agent unresolved; delegating anyway", "lead", lead, "error", err)
	}

	if err := o.delegator.Assign(ctx, lead, text); err != nil {
		log.Error("task delivery failed", "lead", lead, "via", o.delegator.Name(), "error", err)
		return nil, err
	}
	log.Info("task assigned",
		"lead", lead,
		"via", o.delegator.Name(),
		"reused", res.Reused,
		"started", res.Started,
	)
	return res, nil
}
