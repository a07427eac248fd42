package team

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/teamctl/internal/errors"
)

// DefaultDescription is used by create when no description is given.
const DefaultDescription = "Team description"

// TemplateParams describes a team to scaffold.
type TemplateParams struct {
	Name        string
	Description string
	Lead        string
	Members     []string
	// AgentName maps an employee ID to a display name. Nil uses the ID.
	AgentName func(employeeID string) string
}

// RenderTemplate returns the contents of a new team file.
func RenderTemplate(p TemplateParams) string {
	description := p.Description
	if description == "" {
		description = DefaultDescription
	}
	agentName := p.AgentName
	if agentName == nil {
		agentName = func(id string) string { return id }
	}

	var sb strings.Builder

	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "name: %s\n", p.Name)
	fmt.Fprintf(&sb, "description: %s\n", description)
	fmt.Fprintf(&sb, "lead_agent: %s\n", p.Lead)
	sb.WriteString("members:\n")
	for _, m := range p.Members {
		fmt.Fprintf(&sb, "      - employee_id: %s\n        role: member\n", m)
	}
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s TEAM\n\n", strings.ToUpper(p.Name))
	fmt.Fprintf(&sb, "## Description\n%s\n\n", description)

	sb.WriteString("## Workflow\n\n")
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")
	sb.WriteString("    A[Lead receives task] --> B[Analyze requirements]\n")
	sb.WriteString("    B --> C[Assign work]\n")
	sb.WriteString("    C --> D[Members complete tasks]\n")
	sb.WriteString("    D --> E[Review results]\n")
	sb.WriteString("    E --> F[Lead reports completion]\n")
	sb.WriteString("```\n\n")

	sb.WriteString("### Coordination Process\n\n")
	fmt.Fprintf(&sb, "1. **Lead Agent** (%s) receives task and analyzes requirements\n", p.Lead)
	sb.WriteString("2. Lead assigns work to team members based on their roles\n")
	sb.WriteString("3. Members complete their assigned tasks independently\n")
	sb.WriteString("4. Lead reviews results and ensures quality\n")
	sb.WriteString("5. Lead reports completion with final results\n\n")

	sb.WriteString("## Team Members\n\n")
	for _, m := range p.Members {
		role := DefaultRole
		if m == p.Lead {
			role = "team lead 👑"
		}
		fmt.Fprintf(&sb, "- **%s** (%s): %s\n", m, agentName(m), role)
	}

	sb.WriteString("\n## Usage\n\n")
	sb.WriteString("Assign task to this team:\n")
	sb.WriteString("```bash\n")
	fmt.Fprintf(&sb, "teamctl assign %s <<EOF\n", p.Name)
	sb.WriteString("Your task description here...\n")
	sb.WriteString("EOF\n")
	sb.WriteString("```\n\n")
	sb.WriteString("Monitor team progress:\n")
	sb.WriteString("```bash\n")
	fmt.Fprintf(&sb, "teamctl monitor %s --follow\n", p.Name)
	sb.WriteString("```\n")

	return sb.String()
}

// CreateResult reports what WriteTemplate did.
type CreateResult struct {
	Path       string
	CreatedDir bool
}

// WriteTemplate writes a new team file into the store's directory, creating
// the directory when missing. An existing file is only replaced when force
// is set.
func (s *Store) WriteTemplate(p TemplateParams, force bool) (CreateResult, error) {
	result := CreateResult{Path: s.Path(p.Name)}

	if p.Name == "" {
		return result, errors.NewPreconditionError("team name is required", errors.ErrInvalidInput)
	}
	if p.Lead == "" {
		return result, errors.NewPreconditionError("lead agent is required", errors.ErrInvalidInput)
	}

	exists, err := afero.DirExists(s.fs, s.dir)
	if err != nil {
		return result, errors.NewTeamError("failed to stat teams directory", err).WithFile(s.dir)
	}
	if !exists {
		if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
			return result, errors.NewTeamError("failed to create teams directory", err).WithFile(s.dir)
		}
		result.CreatedDir = true
	}

	if !force {
		if ok, _ := afero.Exists(s.fs, result.Path); ok {
			return result, errors.NewAlreadyExistsError("team file", result.Path).
				WithCause(errors.ErrTeamExists).
				WithHint("Use --force to overwrite")
		}
	}

	if err := afero.WriteFile(s.fs, result.Path, []byte(RenderTemplate(p)), 0o644); err != nil {
		return result, errors.NewTeamError("failed to write team file", err).
			WithTeam(p.Name).
			WithFile(result.Path)
	}
	return result, nil
}
