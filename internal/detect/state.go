package detect

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// State is an agent's inferred runtime state.
type State string

const (
	StateUnknown State = "unknown"
	StateIdle    State = "idle"
	StateBusy    State = "busy"
	StateStuck   State = "stuck"
	StateBlocked State = "blocked"
	StateError   State = "error"
)

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known states.
func (s State) IsValid() bool {
	switch s {
	case StateUnknown, StateIdle, StateBusy, StateStuck, StateBlocked, StateError:
		return true
	default:
		return false
	}
}

// RuntimeState is one observation of an agent. It is computed per query
// and never cached.
type RuntimeState struct {
	State State
	// ElapsedSeconds is how long the current busy spell has lasted, as
	// reported by the launcher. Only meaningful when HasElapsed is set.
	ElapsedSeconds int
	HasElapsed     bool
	// Reason is the offending line for StateError.
	Reason string
}

// Unknown is the state reported when nothing can be inferred.
var Unknown = RuntimeState{State: StateUnknown}

// Pattern categories. Exported so callers can extend or inspect them.
var (
	// WorkingPatterns match the launcher's in-progress indicator.
	WorkingPatterns = []string{
		`(?i)esc to interrupt`,
		`(?i)ctrl\+c to interrupt`,
		`[✻✶✳✢✽⏺·*]\s*\w+…`,
		`⠋|⠙|⠹|⠸|⠼|⠴|⠦|⠧|⠇|⠏`,
	}

	// ErrorPatterns match launcher failures, not error text printed by
	// commands the agent runs.
	ErrorPatterns = []string{
		`(?i)^\W*(?:API )?Error: (?:session|connection|authentication|api|overloaded)\b.*`,
		`(?i)^\W*API Error:? \d{3}\b.*`,
		`(?i)\b(?:claude|codex|agent) (?:exited|terminated|crashed|died) (?:with|unexpectedly)\b.*`,
		`(?i)(?:rate limit|usage limit|quota) (?:exceeded|reached)\b.*`,
		`(?i)(?:invalid api key|please run /login)\b.*`,
	}

	// BlockedPatterns match prompts that need a human: permission requests
	// and direct questions.
	BlockedPatterns = []string{
		`(?i)do you want (?:me )?to (?:proceed|continue|run|execute|apply|make|create|edit)`,
		`(?i)(?:shall|should|can|may) I (?:proceed|continue|go ahead|run|execute|apply)`,
		`(?i)(?:allow|permit|approve) (?:this|the) (?:action|change|operation|command)`,
		`(?i)\[Y(?:es)?/[Nn](?:o)?\]`,
		`(?i)\(y(?:es)?/n(?:o)?\)`,
		`❯\s*1\.\s*Yes`,
		`(?i)waiting for (?:your )?(?:approval|confirmation|permission|input|response)`,
		`(?i)press (?:y|enter) to (?:confirm|continue|proceed|approve)`,
	}

	// IdlePatterns match the launcher's empty input prompt.
	IdlePatterns = []string{
		`^[>❯›▌]\s*$`,
		`^│\s*[>❯](?:\s|$)`,
		`↵\s*send`,
		`\(shift\+tab to cycle\)`,
		`⏵⏵\s*(?:bypass permissions|accept edits)`,
		`(?i)\? for shortcuts`,
	}
)

// elapsedPattern finds "12s", "1m 05s", "2h 3m 4s" inside a working line.
var elapsedPattern = regexp.MustCompile(`\(?\s*(?:(\d+)h\s*)?(?:(\d+)m\s*)?(\d+)s\b`)

// recentLineCount bounds how much of the capture is examined.
const recentLineCount = 10

// Detector matches captured output against the pattern categories.
// It is safe for concurrent use.
type Detector struct {
	stuckAfter time.Duration

	working []*regexp.Regexp
	errors  []*regexp.Regexp
	blocked []*regexp.Regexp
	idle    []*regexp.Regexp
}

// NewDetector returns a Detector. Busy spells longer than stuckAfter are
// reported as stuck; zero disables stuck detection.
func NewDetector(stuckAfter time.Duration) *Detector {
	return &Detector{
		stuckAfter: stuckAfter,
		working:    compilePatterns(WorkingPatterns),
		errors:     compilePatterns(ErrorPatterns),
		blocked:    compilePatterns(BlockedPatterns),
		idle:       compilePatterns(IdlePatterns),
	}
}

// compilePatterns compiles each pattern in multi-line mode so ^ and $ match
// per line. Invalid patterns are skipped.
func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile("(?m)" + p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

// Detect infers the runtime state from output.
func (d *Detector) Detect(output string) RuntimeState {
	recent := GetLastNonEmptyLines(strings.Split(StripAnsi(output), "\n"), recentLineCount)
	if len(recent) == 0 {
		return Unknown
	}
	text := strings.Join(recent, "\n")

	if line, ok := d.matchLine(recent, d.working); ok {
		return d.busy(line)
	}
	if m := firstMatch(text, d.errors); m != "" {
		return RuntimeState{State: StateError, Reason: truncateReason(m)}
	}
	if firstMatch(text, d.blocked) != "" {
		return RuntimeState{State: StateBlocked}
	}
	if firstMatch(text, d.idle) != "" {
		return RuntimeState{State: StateIdle}
	}
	return Unknown
}

func (d *Detector) busy(line string) RuntimeState {
	rs := RuntimeState{State: StateBusy}
	if secs, ok := ParseElapsed(line); ok {
		rs.ElapsedSeconds = secs
		rs.HasElapsed = true
		if d.stuckAfter > 0 && time.Duration(secs)*time.Second > d.stuckAfter {
			rs.State = StateStuck
		}
	}
	return rs
}

// matchLine returns the most recent line matching any pattern.
func (d *Detector) matchLine(lines []string, patterns []*regexp.Regexp) (string, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		for _, p := range patterns {
			if p.MatchString(lines[i]) {
				return lines[i], true
			}
		}
	}
	return "", false
}

func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// ParseElapsed extracts the elapsed seconds from a working line such as
// "✻ Thinking… (1m 05s · ↑ 1.2k tokens · esc to interrupt)".
func ParseElapsed(line string) (int, bool) {
	m := elapsedPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	total := 0
	for i, unit := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		total += n * unit
	}
	return total, true
}

const maxReasonLen = 120

func truncateReason(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "⎿●•·*-> ")
	if len(s) > maxReasonLen {
		return ansi.Truncate(s, maxReasonLen, "…")
	}
	return s
}

// StripAnsi removes ANSI escape sequences from text.
func StripAnsi(text string) string {
	return ansi.Strip(text)
}

// GetLastNonEmptyLines returns the last n non-empty lines, trimmed, in
// their original order.
func GetLastNonEmptyLines(lines []string, n int) []string {
	result := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(result) < n; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			result = append([]string{line}, result...)
		}
	}
	return result
}
