package team

import (
	"fmt"

	"github.com/Iron-Ham/teamctl/internal/errors"
)

// RequiredFields must appear in every team's front matter.
var RequiredFields = []string{"name", "description", "lead_agent"}

// Validate returns human-readable problems with cfg. The result is
// advisory: display commands print it and continue.
func Validate(cfg *Config) []string {
	var problems []string

	for _, field := range RequiredFields {
		if !cfg.Declares(field) {
			problems = append(problems, fmt.Sprintf("Missing required field: %s", field))
		}
	}

	if len(cfg.Members) == 0 {
		problems = append(problems, "Team must have at least one member")
	}

	if cfg.LeadAgent != "" && !cfg.HasMember(cfg.LeadAgent) {
		problems = append(problems, fmt.Sprintf("Lead agent '%s' not in members list", cfg.LeadAgent))
	}

	return problems
}

// EnableHint tells users how to re-enable a disabled team.
const EnableHint = "To enable: Set 'enabled: true' in the team config"

// RequireEnabled returns a PreconditionError for a disabled team.
func RequireEnabled(cfg *Config) error {
	if cfg.Enabled {
		return nil
	}
	return errors.NewPreconditionError(fmt.Sprintf("Team '%s' is disabled", cfg.Name), errors.ErrTeamDisabled).
		WithHint("Config: " + cfg.File).
		WithHint(EnableHint)
}

// RequireLead returns a PreconditionError when the team has no lead.
func RequireLead(cfg *Config) error {
	if cfg.LeadAgent != "" {
		return nil
	}
	return errors.NewPreconditionError("Team has no lead_agent configured", errors.ErrNoLead)
}
